// Package database provides SQL persistence for accounts, floor records
// and story flags on SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

// Database wraps the SQL connection and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
	now     func() time.Time
}

var (
	_ tower.Repository       = (*Database)(nil)
	_ progression.StoryStore = (*Database)(nil)
)

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig connects using cfg and brings the schema up to date.
func OpenWithConfig(cfg Config) (*Database, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.(type) {
	case *PostgresDialect:
		dsn = cfg.Postgres.ConnString()
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if pg := cfg.Postgres; dialect.DriverName() == "postgres" {
		if pg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(pg.MaxOpenConns)
		}
		if pg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(pg.MaxIdleConns)
		}
		if pg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(pg.ConnMaxLifetime)
		}
	} else {
		// PRAGMAs are per connection; one connection keeps them in force.
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialise database (%s): %w", stmt, err)
		}
	}

	d := &Database{
		db:      db,
		dialect: dialect,
		qb:      NewQueryBuilder(dialect),
		now:     func() time.Time { return time.Now().UTC() },
	}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id ` + d.dialect.SerialPrimaryKey() + `,
			username ` + d.dialect.CaseInsensitiveText() + ` UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_login TIMESTAMP,
			last_ip TEXT,
			banned INTEGER NOT NULL DEFAULT 0,
			is_admin INTEGER NOT NULL DEFAULT 0
		)`,

		// One row per player per visited floor
		`CREATE TABLE IF NOT EXISTS floor_states (
			player_id TEXT NOT NULL,
			floor_level INTEGER NOT NULL,
			last_visited_at TIMESTAMP NOT NULL,
			last_cleared_at TIMESTAMP,
			current_room_id TEXT NOT NULL DEFAULT '',
			ever_cleared INTEGER NOT NULL DEFAULT 0,
			permanently_clear INTEGER NOT NULL DEFAULT 0,
			boss_defeated INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (player_id, floor_level)
		)`,

		`CREATE TABLE IF NOT EXISTS room_states (
			player_id TEXT NOT NULL,
			floor_level INTEGER NOT NULL,
			room_id TEXT NOT NULL,
			is_explored INTEGER NOT NULL DEFAULT 0,
			is_cleared INTEGER NOT NULL DEFAULT 0,
			treasure_looted INTEGER NOT NULL DEFAULT 0,
			trap_triggered INTEGER NOT NULL DEFAULT 0,
			event_completed INTEGER NOT NULL DEFAULT 0,
			puzzle_solved INTEGER NOT NULL DEFAULT 0,
			riddle_answered INTEGER NOT NULL DEFAULT 0,
			lore_collected INTEGER NOT NULL DEFAULT 0,
			insight_granted INTEGER NOT NULL DEFAULT 0,
			memory_triggered INTEGER NOT NULL DEFAULT 0,
			secret_boss_defeated INTEGER NOT NULL DEFAULT 0,
			seal_claimed INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (player_id, floor_level, room_id),
			FOREIGN KEY (player_id, floor_level) REFERENCES floor_states(player_id, floor_level) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS story_flags (
			player_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			floor INTEGER NOT NULL,
			recorded_at TIMESTAMP NOT NULL,
			PRIMARY KEY (player_id, kind, floor)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_floor_states_visited ON floor_states(player_id, last_visited_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
