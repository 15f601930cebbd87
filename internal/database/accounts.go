package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
)

// bcrypt cost factor (12 is a good balance of security and performance)
const bcryptCost = 12

// MinPasswordLength is the shortest password an account may have.
const MinPasswordLength = 4

// ErrAccountNotFound is returned when an account lookup fails.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned when trying to create a duplicate account.
var ErrAccountExists = errors.New("account already exists")

// ErrInvalidCredentials is returned when login credentials are incorrect.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrAccountBanned is returned when a banned account tries to login.
var ErrAccountBanned = errors.New("account is banned")

// Account represents a player account. Its username doubles as the
// player id of floor records and story flags.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastLogin    *time.Time
	LastIP       string
	Banned       bool
	IsAdmin      bool
}

const accountColumns = "id, username, password_hash, created_at, last_login, last_ip, banned, is_admin"

// CreateAccount creates a new account with the given username and password.
// The password is hashed with bcrypt before storage.
func (d *Database) CreateAccount(username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username cannot be empty")
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := d.qb.BuildWithReturning("INSERT INTO accounts (username, password_hash) VALUES (?, ?)", "id")
	var id int64
	if d.dialect.SupportsLastInsertID() {
		var result sql.Result
		result, err = d.db.Exec(query, username, string(hash))
		if err == nil {
			id, err = result.LastInsertId()
		}
	} else {
		err = d.db.QueryRow(query, username, string(hash)).Scan(&id)
	}
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &Account{
		ID:           id,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    d.now(),
	}, nil
}

// ValidateLogin checks if the username and password are correct.
// Returns the account if valid, or ErrInvalidCredentials if not.
// The ipAddress parameter is used to log the connection IP.
func (d *Database) ValidateLogin(username, password, ipAddress string) (*Account, error) {
	account, err := d.GetAccountByUsername(username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if account.Banned {
		return nil, ErrAccountBanned
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// A failed bookkeeping update does not fail the login
	if err := d.UpdateLastLoginAndIP(account.ID, ipAddress); err != nil {
		logger.Warning("Failed to update last login", "account", account.Username, "error", err)
	}

	return account, nil
}

// GetAccountByUsername retrieves an account by username (case-insensitive).
func (d *Database) GetAccountByUsername(username string) (*Account, error) {
	row := d.db.QueryRow(d.qb.Build("SELECT "+accountColumns+" FROM accounts WHERE username = ?"), username)
	return scanAccount(row)
}

// GetAccountByID retrieves an account by ID.
func (d *Database) GetAccountByID(accountID int64) (*Account, error) {
	row := d.db.QueryRow(d.qb.Build("SELECT "+accountColumns+" FROM accounts WHERE id = ?"), accountID)
	return scanAccount(row)
}

func scanAccount(row scanner) (*Account, error) {
	var account Account
	var lastLogin sql.NullTime
	var lastIP sql.NullString
	var banned, isAdmin int

	err := row.Scan(&account.ID, &account.Username, &account.PasswordHash, &account.CreatedAt, &lastLogin, &lastIP, &banned, &isAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if lastLogin.Valid {
		account.LastLogin = &lastLogin.Time
	}
	if lastIP.Valid {
		account.LastIP = lastIP.String
	}
	account.Banned = banned != 0
	account.IsAdmin = isAdmin != 0
	return &account, nil
}

// UpdateLastLoginAndIP updates the last_login timestamp and IP address for an account.
func (d *Database) UpdateLastLoginAndIP(accountID int64, ipAddress string) error {
	_, err := d.db.Exec(
		d.qb.Build("UPDATE accounts SET last_login = ?, last_ip = ? WHERE id = ?"),
		d.now(), ipAddress, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login and IP: %w", err)
	}
	return nil
}

// SetBanned bans or unbans an account.
func (d *Database) SetBanned(accountID int64, banned bool) error {
	return d.setAccountFlag("banned", accountID, banned)
}

// SetAdmin sets or removes admin status for an account.
func (d *Database) SetAdmin(accountID int64, isAdmin bool) error {
	return d.setAccountFlag("is_admin", accountID, isAdmin)
}

func (d *Database) setAccountFlag(column string, accountID int64, value bool) error {
	result, err := d.db.Exec(
		d.qb.Build("UPDATE accounts SET "+column+" = ? WHERE id = ?"),
		boolToInt(value), accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ChangePassword updates the password for an account.
func (d *Database) ChangePassword(accountID int64, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = d.db.Exec(
		d.qb.Build("UPDATE accounts SET password_hash = ? WHERE id = ?"),
		string(hash), accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ChangePasswordWithVerify updates the password after verifying the old password.
func (d *Database) ChangePasswordWithVerify(accountID int64, oldPassword, newPassword string) error {
	account, err := d.GetAccountByID(accountID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	return d.ChangePassword(accountID, newPassword)
}

// AccountExists checks if an account with the given username exists.
func (d *Database) AccountExists(username string) (bool, error) {
	var count int
	err := d.db.QueryRow(
		d.qb.Build("SELECT COUNT(*) FROM accounts WHERE username = ?"),
		username,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return count > 0, nil
}

// GetTotalAccounts returns the total number of accounts.
func (d *Database) GetTotalAccounts() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}
