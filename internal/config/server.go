package config

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/lawnchairsociety/delvekeep/server/internal/throttle"
)

// ServerConfig holds the session server settings.
type ServerConfig struct {
	TelnetAddr    string `yaml:"telnet_addr"`
	WebSocketAddr string `yaml:"websocket_addr"`

	// AutoSaveSeconds is how often connected players' floors are saved.
	AutoSaveSeconds int `yaml:"auto_save_seconds"`

	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Password    PasswordConfig    `yaml:"password"`
	Connections ConnectionsConfig `yaml:"connections"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Commands    CommandsConfig    `yaml:"commands"`
}

// AutoSaveInterval returns AutoSaveSeconds as a duration.
func (c ServerConfig) AutoSaveInterval() time.Duration {
	return time.Duration(c.AutoSaveSeconds) * time.Second
}

// RateLimitConfig holds login lockout settings.
type RateLimitConfig struct {
	// MaxAttempts is the number of failed logins before lockout.
	MaxAttempts int `yaml:"max_attempts"`

	// LockoutSeconds is the first lockout. Each later one doubles.
	LockoutSeconds int `yaml:"lockout_seconds"`

	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// CommandsConfig limits how fast one session may send commands.
type CommandsConfig struct {
	Enabled       bool `yaml:"enabled"`
	MaxCommands   int  `yaml:"max_commands"`
	WindowSeconds int  `yaml:"window_seconds"`
}

// Window converts the settings for throttle.NewWindow.
func (c CommandsConfig) Window() throttle.WindowConfig {
	return throttle.WindowConfigFromYAML(c.Enabled, c.MaxCommands, c.WindowSeconds)
}

// ConnectionsConfig holds connection limits. Zero means unlimited.
type ConnectionsConfig struct {
	MaxPerIP int `yaml:"max_per_ip"`
	MaxTotal int `yaml:"max_total"`
}

// PasswordConfig holds password rules for new accounts.
type PasswordConfig struct {
	MinLength        int  `yaml:"min_length"`
	RequireUppercase bool `yaml:"require_uppercase"`
	RequireLowercase bool `yaml:"require_lowercase"`
	RequireDigit     bool `yaml:"require_digit"`
	RequireSpecial   bool `yaml:"require_special"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins lists origins allowed to connect. Empty enforces
	// same-origin; "*" allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	MaxMessageSize int64 `yaml:"max_message_size"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		TelnetAddr:      ":4000",
		WebSocketAddr:   ":4443",
		AutoSaveSeconds: 300,
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{},
			MaxMessageSize: 4096,
		},
		Password: PasswordConfig{
			MinLength:        8,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireDigit:     true,
		},
		Connections: ConnectionsConfig{
			MaxPerIP: 3,
			MaxTotal: 100,
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:       5,
			LockoutSeconds:    30,
			MaxLockoutSeconds: 300,
		},
		Commands: CommandsConfig{
			Enabled:       true,
			MaxCommands:   10,
			WindowSeconds: 5,
		},
	}
}

// IsOriginAllowed reports whether a browser at origin may connect to
// requestHost.
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin treats a missing origin (non-browser client) as same-origin.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true
	}
	host := origin
	if _, after, ok := strings.Cut(origin, "://"); ok {
		host = after
	}
	return strings.TrimSuffix(host, "/") == requestHost
}

func (c *PasswordConfig) minLength() int {
	if c.MinLength == 0 {
		return 8
	}
	return c.MinLength
}

// ValidatePassword returns what is wrong with password, or "" if it
// meets every rule.
func (c *PasswordConfig) ValidatePassword(password string) string {
	if n := c.minLength(); len(password) < n {
		return "Password must be at least " + strconv.Itoa(n) + " characters."
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	switch {
	case c.RequireUppercase && !hasUpper:
		return "Password must contain at least one uppercase letter."
	case c.RequireLowercase && !hasLower:
		return "Password must contain at least one lowercase letter."
	case c.RequireDigit && !hasDigit:
		return "Password must contain at least one digit."
	case c.RequireSpecial && !hasSpecial:
		return "Password must contain at least one special character."
	}
	return ""
}

// GetRequirementsText describes the rules, e.g. "min 8 chars, digit".
func (c *PasswordConfig) GetRequirementsText() string {
	parts := []string{"min " + strconv.Itoa(c.minLength()) + " chars"}
	if c.RequireUppercase {
		parts = append(parts, "uppercase")
	}
	if c.RequireLowercase {
		parts = append(parts, "lowercase")
	}
	if c.RequireDigit {
		parts = append(parts, "digit")
	}
	if c.RequireSpecial {
		parts = append(parts, "special char")
	}
	return strings.Join(parts, ", ")
}
