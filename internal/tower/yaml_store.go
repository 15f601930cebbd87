package tower

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
)

// PlayerData is the on-disk layout of one player's floor records.
type PlayerData struct {
	PlayerID string        `yaml:"player_id"`
	SavedAt  time.Time     `yaml:"saved_at"`
	Floors   []*FloorState `yaml:"floors"`
}

var safePlayerID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// FileRepository stores each player's floor records in a YAML file.
type FileRepository struct {
	dir string
	mu  sync.Mutex
}

var _ Repository = (*FileRepository)(nil)

// NewFileRepository stores files under dir, creating it if needed.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) path(playerID string) (string, error) {
	if !safePlayerID.MatchString(playerID) {
		return "", fmt.Errorf("invalid player id %q", playerID)
	}
	return filepath.Join(r.dir, playerID+".yaml"), nil
}

func (r *FileRepository) read(playerID string) (*PlayerData, error) {
	path, err := r.path(playerID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &PlayerData{PlayerID: playerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var pd PlayerData
	if err := yaml.Unmarshal(data, &pd); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	floors := pd.Floors[:0]
	for i, st := range pd.Floors {
		if st == nil || st.FloorLevel < 1 {
			logger.Warning("Dropping corrupt floor record", "player", playerID, "entry", i, "file", path)
			continue
		}
		if st.RoomStates == nil {
			st.RoomStates = NewFloorState(st.FloorLevel).RoomStates
		}
		floors = append(floors, st)
	}
	pd.Floors = floors
	pd.PlayerID = playerID
	return &pd, nil
}

func (r *FileRepository) write(pd *PlayerData) error {
	path, err := r.path(pd.PlayerID)
	if err != nil {
		return err
	}
	pd.SavedAt = time.Now().UTC()
	sort.Slice(pd.Floors, func(i, j int) bool { return pd.Floors[i].FloorLevel < pd.Floors[j].FloorLevel })

	data, err := yaml.Marshal(pd)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// LoadFloorState returns the stored record for level
func (r *FileRepository) LoadFloorState(_ context.Context, playerID string, level int) (*FloorState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pd, err := r.read(playerID)
	if err != nil {
		return nil, err
	}
	for _, st := range pd.Floors {
		if st.FloorLevel == level {
			return st, nil
		}
	}
	return nil, nil
}

// SaveFloorState replaces the record for the state's level
func (r *FileRepository) SaveFloorState(_ context.Context, playerID string, state *FloorState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pd, err := r.read(playerID)
	if err != nil {
		return err
	}

	replaced := false
	for i, st := range pd.Floors {
		if st.FloorLevel == state.FloorLevel {
			pd.Floors[i] = state.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		pd.Floors = append(pd.Floors, state.Clone())
	}

	return r.write(pd)
}

// ListFloorStates returns every record for the player by level
func (r *FileRepository) ListFloorStates(_ context.Context, playerID string) ([]*FloorState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pd, err := r.read(playerID)
	if err != nil {
		return nil, err
	}
	sort.Slice(pd.Floors, func(i, j int) bool { return pd.Floors[i].FloorLevel < pd.Floors[j].FloorLevel })
	return pd.Floors, nil
}
