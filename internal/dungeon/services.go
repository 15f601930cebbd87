package dungeon

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/rival"
	"github.com/lawnchairsociety/delvekeep/server/internal/throttle"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

// Notifier publishes messages to everyone online.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

type discardNotifier struct{}

func (discardNotifier) Notify(string) {}

// StoryRecorder records story milestones reached inside the dungeon.
type StoryRecorder interface {
	Record(ctx context.Context, playerID string, kind progression.FlagKind, floor int) (bool, error)
}

// RivalBook tracks the recurring duelist each player meets.
type RivalBook interface {
	Get(playerID string) (rival.Duelist, bool)
	Encounter(playerID string, floor int) (rival.Duelist, bool)
	RecordOutcome(playerID string, playerWon bool) (rival.Duelist, bool)
}

var _ RivalBook = (*rival.Repository)(nil)

// Services are the collaborators a Controller works with. Floors, Store,
// Gate and Oracle are required.
type Services struct {
	Floors   tower.FloorSource
	Store    *tower.StateStore
	Gate     *progression.Gate
	Oracle   progression.StoryOracle
	Story    StoryRecorder
	Notifier Notifier
	Notices  *throttle.Interval
	Rivals   RivalBook
	Log      *slog.Logger
}

var errMissingService = errors.New("dungeon: missing required service")

func (s Services) withDefaults() (Services, error) {
	if s.Floors == nil || s.Store == nil || s.Gate == nil || s.Oracle == nil {
		return s, errMissingService
	}
	if s.Notifier == nil {
		s.Notifier = discardNotifier{}
	}
	if s.Log == nil {
		s.Log = logger.Component("dungeon")
	}
	return s, nil
}
