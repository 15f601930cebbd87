// Package redisstore keeps floor records and story flags in Redis.
//
// Key layout, with the default prefix:
//
//	delvekeep:floors:{player}  hash, field = floor level, value = JSON record
//	delvekeep:story:{player}   sorted set, member = kind:floor, score = unix ms
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

// DefaultPrefix namespaces every key.
const DefaultPrefix = "delvekeep"

// Options configures the client created by NewClient.
type Options struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	PoolSize int    `yaml:"pool_size"`
}

// NewClient creates a client for a single Redis instance.
func NewClient(opts Options) (redis.UniversalClient, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	}), nil
}

// Store implements tower.Repository and progression.StoryStore.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var (
	_ tower.Repository       = (*Store)(nil)
	_ progression.StoryStore = (*Store)(nil)
)

// New wraps client. An empty prefix uses DefaultPrefix.
func New(client redis.UniversalClient, prefix string) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) floorsKey(playerID string) string {
	return s.prefix + ":floors:" + playerID
}

func (s *Store) storyKey(playerID string) string {
	return s.prefix + ":story:" + playerID
}

// LoadFloorState returns nil, nil when the player has no record of level.
func (s *Store) LoadFloorState(ctx context.Context, playerID string, level int) (*tower.FloorState, error) {
	raw, err := s.client.HGet(ctx, s.floorsKey(playerID), strconv.Itoa(level)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load floor %d: %w", level, err)
	}
	return decodeFloorState(raw)
}

// SaveFloorState overwrites the player's record of state.FloorLevel.
func (s *Store) SaveFloorState(ctx context.Context, playerID string, state *tower.FloorState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode floor %d: %w", state.FloorLevel, err)
	}
	if err := s.client.HSet(ctx, s.floorsKey(playerID), strconv.Itoa(state.FloorLevel), raw).Err(); err != nil {
		return fmt.Errorf("failed to save floor %d: %w", state.FloorLevel, err)
	}
	return nil
}

// ListFloorStates returns every record of the player, shallowest first.
func (s *Store) ListFloorStates(ctx context.Context, playerID string) ([]*tower.FloorState, error) {
	fields, err := s.client.HGetAll(ctx, s.floorsKey(playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list floors: %w", err)
	}

	states := make([]*tower.FloorState, 0, len(fields))
	for field, raw := range fields {
		st, err := decodeFloorState([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("floor %s: %w", field, err)
		}
		level, err := strconv.Atoi(field)
		if err != nil || level < 1 {
			logger.Warning("Skipping floor record with bad field", "player", playerID, "field", field)
			continue
		}
		st.FloorLevel = level
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].FloorLevel < states[j].FloorLevel })
	return states, nil
}

func decodeFloorState(raw []byte) (*tower.FloorState, error) {
	var st tower.FloorState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to decode floor record: %w", err)
	}
	if st.RoomStates == nil {
		fresh := tower.NewFloorState(st.FloorLevel)
		st.RoomStates = fresh.RoomStates
	}
	return &st, nil
}

// RecordStoryFlag stores a milestone and reports whether it is new.
// Recording the same flag twice keeps the first timestamp.
func (s *Store) RecordStoryFlag(ctx context.Context, playerID string, kind progression.FlagKind, floor int) (bool, error) {
	added, err := s.client.ZAddNX(ctx, s.storyKey(playerID), redis.Z{
		Score:  float64(s.now().UnixMilli()),
		Member: flagMember(kind, floor),
	}).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record story flag: %w", err)
	}
	return added == 1, nil
}

// LoadStoryFlags returns the player's milestones in the order reached.
func (s *Store) LoadStoryFlags(ctx context.Context, playerID string) ([]progression.StoryFlag, error) {
	members, err := s.client.ZRangeWithScores(ctx, s.storyKey(playerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load story flags: %w", err)
	}

	flags := make([]progression.StoryFlag, 0, len(members))
	for _, z := range members {
		member, _ := z.Member.(string)
		kind, floor, err := parseFlagMember(member)
		if err != nil {
			return nil, err
		}
		flags = append(flags, progression.StoryFlag{
			PlayerID:   playerID,
			Kind:       kind,
			Floor:      floor,
			RecordedAt: time.UnixMilli(int64(z.Score)).UTC(),
		})
	}
	return flags, nil
}

// DeleteStoryFlag removes a milestone. It reports whether one was removed.
func (s *Store) DeleteStoryFlag(ctx context.Context, playerID string, kind progression.FlagKind, floor int) (bool, error) {
	n, err := s.client.ZRem(ctx, s.storyKey(playerID), flagMember(kind, floor)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete story flag: %w", err)
	}
	return n > 0, nil
}

func flagMember(kind progression.FlagKind, floor int) string {
	return string(kind) + ":" + strconv.Itoa(floor)
}

func parseFlagMember(member string) (progression.FlagKind, int, error) {
	i := strings.LastIndexByte(member, ':')
	if i < 0 {
		return "", 0, fmt.Errorf("malformed story flag %q", member)
	}
	floor, err := strconv.Atoi(member[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed story flag %q: %w", member, err)
	}
	kind, err := progression.ParseFlagKind(member[:i])
	if err != nil {
		return "", 0, err
	}
	return kind, floor, nil
}
