// Package app turns a loaded configuration into the dungeon's running
// services. The server and the admin tools share it so they always agree
// on where floor records and story flags live.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/lawnchairsociety/delvekeep/server/internal/config"
	"github.com/lawnchairsociety/delvekeep/server/internal/database"
	"github.com/lawnchairsociety/delvekeep/server/internal/dungeon"
	"github.com/lawnchairsociety/delvekeep/server/internal/gametime"
	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/redisstore"
	"github.com/lawnchairsociety/delvekeep/server/internal/rival"
	"github.com/lawnchairsociety/delvekeep/server/internal/throttle"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

// StoryEditor is a story store that can also forget a flag.
type StoryEditor interface {
	progression.StoryStore
	DeleteStoryFlag(ctx context.Context, playerID string, kind progression.FlagKind, floor int) (bool, error)
}

// Runtime holds everything built from one configuration.
type Runtime struct {
	Config   config.Config
	Clock    gametime.Clock
	Accounts *database.Database
	Repo     tower.Repository
	Story    progression.StoryStore
	Tracker  *progression.Tracker
	Tower    *tower.Tower
	Store    *tower.StateStore
	Gate     *progression.Gate
	Rivals   *rival.Repository
	Notices  *throttle.Interval

	redis *redisstore.Store
}

// Open validates cfg, connects storage and builds the services.
func Open(ctx context.Context, cfg config.Config, clock gametime.Clock) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = gametime.RealClock{}
	}

	db, err := database.OpenWithConfig(cfg.Storage.DatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("open account database: %w", err)
	}
	rt := &Runtime{Config: cfg, Clock: clock, Accounts: db}

	if err := rt.openRecords(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	layout := cfg.Dungeon.Layout
	rt.Tower = tower.NewTower(tower.NewGenerator(cfg.Dungeon.WorldSeed, layout))
	rt.Store = tower.NewStateStore(rt.Repo, layout, clock, cfg.Dungeon.RespawnTTL())
	rt.Tracker = progression.NewTracker(rt.Story)
	rt.Gate = progression.NewGate(layout, rt.Tracker, cfg.Dungeon.RequireClearOrdinary)
	rt.Rivals = rival.NewRepository(cfg.Dungeon.RivalCapacity)
	rt.Notices = throttle.NewInterval(cfg.Notices.Interval(), clock)

	logger.Info("Dungeon ready",
		"storage", cfg.Storage.Driver,
		"seed", cfg.Dungeon.WorldSeed,
		"max_floor", layout.MaxFloor,
		"respawn_ttl", cfg.Dungeon.RespawnTTL().String())
	return rt, nil
}

func (rt *Runtime) openRecords(ctx context.Context) error {
	storage := rt.Config.Storage
	switch storage.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		rt.Repo, rt.Story = rt.Accounts, rt.Accounts

	case config.DriverRedis:
		client, err := redisstore.NewClient(storage.Redis)
		if err != nil {
			return err
		}
		store, err := redisstore.New(client, storage.Redis.Prefix)
		if err != nil {
			client.Close()
			return err
		}
		rt.redis = store
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", storage.Redis.Addr, err)
		}
		rt.Repo, rt.Story = store, store

	case config.DriverFile:
		repo, err := tower.NewFileRepository(storage.FileDir)
		if err != nil {
			return err
		}
		rt.Repo, rt.Story = repo, rt.Accounts

	case config.DriverMemory:
		logger.Warning("Floor records are kept in memory and will be lost on restart")
		rt.Repo, rt.Story = tower.NewMemoryRepository(), progression.NewMemoryStore()

	default:
		return fmt.Errorf("unknown storage driver %q", storage.Driver)
	}
	return nil
}

// Services returns the collaborators a dungeon controller needs. The
// notifier is left for the caller to fill in.
func (rt *Runtime) Services() dungeon.Services {
	return dungeon.Services{
		Floors:  rt.Tower,
		Store:   rt.Store,
		Gate:    rt.Gate,
		Oracle:  rt.Tracker,
		Story:   rt.Tracker,
		Notices: rt.Notices,
		Rivals:  rt.Rivals,
		Log:     logger.Component("dungeon"),
	}
}

// StoryEditor returns the story store when it supports deleting flags.
func (rt *Runtime) StoryEditor() (StoryEditor, bool) {
	ed, ok := rt.Story.(StoryEditor)
	return ed, ok
}

// Close releases every connection the runtime opened.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.redis != nil {
		errs = append(errs, rt.redis.Close())
	}
	if rt.Accounts != nil {
		errs = append(errs, rt.Accounts.Close())
	}
	return errors.Join(errs...)
}
