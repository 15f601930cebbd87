// Package config loads the server's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/delvekeep/server/internal/database"
	"github.com/lawnchairsociety/delvekeep/server/internal/redisstore"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

// Config is the root of server.yaml.
type Config struct {
	Dungeon DungeonConfig `yaml:"dungeon"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Notices NoticesConfig `yaml:"notices"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DungeonConfig controls floor generation and progression.
type DungeonConfig struct {
	WorldSeed       int64        `yaml:"world_seed"`
	RespawnTTLHours int          `yaml:"respawn_ttl_hours"`
	Layout          tower.Layout `yaml:"layout"`

	// RequireClearOrdinary makes every floor, not just gate and seal
	// floors, demand a full clear before the stairs open.
	RequireClearOrdinary bool `yaml:"require_clear_ordinary"`

	// RivalCapacity bounds how many rival records stay in memory.
	RivalCapacity int `yaml:"rival_capacity"`
}

// RespawnTTL returns the respawn interval as a duration.
func (d DungeonConfig) RespawnTTL() time.Duration {
	return time.Duration(d.RespawnTTLHours) * time.Hour
}

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverFile     = "file"
	DriverMemory   = "memory"
)

// StorageConfig selects where floor records and story flags live.
// Accounts always live in SQL: PostgreSQL with the postgres driver,
// SQLite at SQLitePath otherwise.
type StorageConfig struct {
	Driver     string                  `yaml:"driver"`
	SQLitePath string                  `yaml:"sqlite_path"`
	Postgres   database.PostgresConfig `yaml:"postgres"`
	Redis      redisstore.Options      `yaml:"redis"`
	FileDir    string                  `yaml:"file_dir"`
}

// DatabaseConfig returns the SQL connection settings for accounts.
func (s StorageConfig) DatabaseConfig() database.Config {
	if s.Driver == DriverPostgres {
		return database.Config{Driver: DriverPostgres, Postgres: s.Postgres}
	}
	return database.DefaultConfig(s.SQLitePath)
}

// NoticesConfig throttles the "the dungeon stirs" broadcast.
type NoticesConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// Interval returns the minimum gap between notices.
func (n NoticesConfig) Interval() time.Duration {
	return time.Duration(n.IntervalMinutes) * time.Minute
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig returns a Config with secure defaults.
func DefaultConfig() *Config {
	pg := database.DefaultPostgresConfig()
	pg.User = "delve"
	pg.Database = "delvekeep"

	return &Config{
		Dungeon: DungeonConfig{
			WorldSeed:       tower.DefaultWorldSeed,
			RespawnTTLHours: int(tower.DefaultRespawnTTL / time.Hour),
			Layout:          tower.DefaultLayout(),
			RivalCapacity:   1024,
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "data/delvekeep.db",
			Postgres:   pg,
			Redis:      redisstore.Options{Addr: "localhost:6379", Prefix: redisstore.DefaultPrefix},
			FileDir:    "data/players",
		},
		Server:  defaultServerConfig(),
		Notices: NoticesConfig{IntervalMinutes: 15},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9100"},
	}
}

// LoadConfig loads configuration from a YAML file on top of the
// defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting the server could not run with.
func (c *Config) Validate() error {
	if err := c.Dungeon.Layout.Validate(); err != nil {
		return fmt.Errorf("dungeon.layout: %w", err)
	}
	if c.Dungeon.RespawnTTLHours < 1 {
		return errors.New("dungeon.respawn_ttl_hours must be at least 1")
	}
	if c.Dungeon.RivalCapacity < 1 {
		return errors.New("dungeon.rival_capacity must be at least 1")
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverFile, DriverMemory:
	case DriverPostgres:
		if c.Storage.Postgres.URL == "" && c.Storage.Postgres.Database == "" {
			return errors.New("storage.postgres needs a url or a database name")
		}
	case DriverRedis:
		if c.Storage.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, postgres, redis, file, memory", c.Storage.Driver)
	}
	if c.Storage.Driver != DriverPostgres && c.Storage.SQLitePath == "" {
		return errors.New("storage.sqlite_path is required for accounts")
	}
	if c.Storage.Driver == DriverFile && c.Storage.FileDir == "" {
		return errors.New("storage.file_dir is required")
	}

	if c.Server.TelnetAddr == "" && c.Server.WebSocketAddr == "" {
		return errors.New("server needs a telnet_addr or a websocket_addr")
	}
	if c.Notices.IntervalMinutes < 0 {
		return errors.New("notices.interval_minutes cannot be negative")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	return nil
}
