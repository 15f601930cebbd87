package server

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/lawnchairsociety/delvekeep/server/internal/database"
	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/metrics"
)

// AccountStore is the slice of the account database the login flow uses.
type AccountStore interface {
	ValidateLogin(username, password, ipAddress string) (*database.Account, error)
	AccountExists(username string) (bool, error)
	CreateAccount(username, password string) (*database.Account, error)
}

var (
	errConnectionClosed = errors.New("connection closed")
	errAuthFailed       = errors.New("authentication failed")
)

// isValidUsername allows letters, digits, '-' and '_', starting with a
// letter.
func isValidUsername(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '_'):
		default:
			return false
		}
	}
	return true
}

// prompt writes question and reads the trimmed answer.
func prompt(client Client, question string) (string, error) {
	client.WriteLine(question)
	line, err := client.ReadLine()
	if err != nil {
		return "", errConnectionClosed
	}
	return strings.TrimSpace(line), nil
}

// handleAuth runs the login/registration flow and returns the account.
func (s *Server) handleAuth(client Client) (*database.Account, error) {
	client.WriteLine("\n" + s.text.GetWelcomeBanner() + "\n\n" + s.text.GetLoginMenu() + "\n\n")

	choice, err := prompt(client, "Enter choice: ")
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(choice) {
	case "l", "login":
		return s.handleLogin(client)
	case "r", "register":
		return s.handleRegister(client)
	default:
		client.WriteLine("Invalid choice. Disconnecting.\n")
		return nil, fmt.Errorf("%w: invalid choice %q", errAuthFailed, choice)
	}
}

func (s *Server) handleLogin(client Client) (*database.Account, error) {
	client.WriteLine("\n--- Login ---\n")
	ip := extractIP(client.RemoteAddr())

	if locked, remaining := s.loginLimiter.IsLocked(ip); locked {
		client.WriteLine(fmt.Sprintf("Too many failed login attempts. Please wait %d seconds.\n", int(remaining.Seconds())+1))
		return nil, fmt.Errorf("%w: rate limited", errAuthFailed)
	}

	username, err := prompt(client, "Username: ")
	if err != nil {
		return nil, err
	}
	if username == "" {
		client.WriteLine("Username cannot be empty.\n")
		return nil, fmt.Errorf("%w: empty username", errAuthFailed)
	}
	password, err := prompt(client, "Password: ")
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.ValidateLogin(username, password, ip)
	switch {
	case errors.Is(err, database.ErrAccountBanned):
		logger.Info("Login attempt on banned account", "username", username, "ip", ip, "event", "login_banned")
		client.WriteLine("\n*** YOUR ACCOUNT HAS BEEN BANNED ***\n")
		return nil, fmt.Errorf("%w: banned", errAuthFailed)

	case errors.Is(err, database.ErrInvalidCredentials):
		metrics.LoginFailures.Inc()
		logger.Info("Failed login attempt", "username", username, "ip", ip, "event", "login_failed")
		if locked, d := s.loginLimiter.RecordFailure(ip); locked {
			logger.Warning("IP rate limited after failed logins", "ip", ip, "lockout_seconds", int(d.Seconds()), "event", "login_ratelimit")
			client.WriteLine(fmt.Sprintf("Invalid username or password. Too many attempts - locked out for %d seconds.\n", int(d.Seconds())))
		} else {
			client.WriteLine("Invalid username or password.\n")
		}
		return nil, fmt.Errorf("%w: invalid credentials", errAuthFailed)

	case err != nil:
		client.WriteLine("An error occurred. Please try again.\n")
		return nil, err
	}

	s.loginLimiter.RecordSuccess(ip)
	logger.Info("Successful login", "username", account.Username, "account_id", account.ID, "ip", ip, "event", "login_success")
	return account, nil
}

func (s *Server) handleRegister(client Client) (*database.Account, error) {
	client.WriteLine("\n--- Register ---\n")

	username, err := prompt(client, "Choose a username: ")
	if err != nil {
		return nil, err
	}
	switch {
	case len(username) < 3:
		client.WriteLine("Username must be at least 3 characters.\n")
		return nil, fmt.Errorf("%w: username too short", errAuthFailed)
	case len(username) > 20:
		client.WriteLine("Username must be 20 characters or less.\n")
		return nil, fmt.Errorf("%w: username too long", errAuthFailed)
	case !isValidUsername(username):
		client.WriteLine("Usernames start with a letter and use only letters, digits, '-' and '_'.\n")
		return nil, fmt.Errorf("%w: invalid username", errAuthFailed)
	}
	if res := s.names.Check(username); !res.Allowed {
		client.WriteLine(res.Reason + "\n")
		return nil, fmt.Errorf("%w: name refused", errAuthFailed)
	}

	exists, err := s.accounts.AccountExists(username)
	if err != nil {
		client.WriteLine("An error occurred. Please try again.\n")
		return nil, err
	}
	if exists {
		client.WriteLine("That username is already taken.\n")
		return nil, fmt.Errorf("%w: username taken", errAuthFailed)
	}

	pw := s.cfg.Password
	password, err := prompt(client, fmt.Sprintf("Choose a password (%s): ", pw.GetRequirementsText()))
	if err != nil {
		return nil, err
	}
	if msg := pw.ValidatePassword(password); msg != "" {
		client.WriteLine(msg + "\n")
		return nil, fmt.Errorf("%w: weak password", errAuthFailed)
	}
	confirm, err := prompt(client, "Confirm password: ")
	if err != nil {
		return nil, err
	}
	if password != confirm {
		client.WriteLine("Passwords do not match.\n")
		return nil, fmt.Errorf("%w: password mismatch", errAuthFailed)
	}

	account, err := s.accounts.CreateAccount(username, password)
	if errors.Is(err, database.ErrAccountExists) {
		client.WriteLine("That username is already taken.\n")
		return nil, fmt.Errorf("%w: username taken", errAuthFailed)
	}
	if err != nil {
		client.WriteLine("An error occurred. Please try again.\n")
		return nil, err
	}

	logger.Info("Account registered", "username", account.Username, "account_id", account.ID,
		"ip", extractIP(client.RemoteAddr()), "event", "account_register")
	return account, nil
}
