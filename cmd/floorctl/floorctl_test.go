package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/delvekeep/server/internal/database"
	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
)

// writeConfig writes a config that keeps everything under dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "server.yaml")
	content := fmt.Sprintf(`storage:
  driver: sqlite
  sqlite_path: %s
metrics:
  enabled: false
`, filepath.Join(dir, "delvekeep.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes floorctl with args and returns its output.
func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenAndCheck(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := run(t, cfg, "gen", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "floor: 1")
	assert.Contains(t, out, "entrance:")

	again, err := run(t, cfg, "gen", "1")
	require.NoError(t, err)
	assert.Equal(t, out, again, "generation should be deterministic")

	other, err := run(t, cfg, "--seed", "7", "gen", "1")
	require.NoError(t, err)
	assert.NotEqual(t, out, other, "a different seed should give a different floor")

	file := filepath.Join(dir, "floor_25.yaml")
	out, err = run(t, cfg, "gen", "25", "-o", file)
	require.NoError(t, err)
	assert.Equal(t, "Floor 25 written to "+file+"\n", out)

	out, err = run(t, cfg, "check", file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ok   "+file+": floor 25 (gate)"), out)
}

func TestCheckRejectsBrokenFloor(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte(`floor: 2
entrance: a
rooms:
  - id: a
    type: entrance
    exits:
      east: b
  - id: b
    type: stairs
    flags: [stairs_down]
`), 0644))

	out, err := run(t, cfg, "check", broken)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL "+broken)
	assert.Contains(t, out, "has no return")
}

func TestGenRejectsBadLevel(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	for _, arg := range []string{"zero", "0", "-3"} {
		_, err := run(t, cfg, "gen", "--", arg)
		assert.Error(t, err, arg)
	}
}

func TestMapAndPath(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	out, err := run(t, cfg, "map", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Floor 1 ("), out)
	assert.Contains(t, out, "@")
	assert.Contains(t, out, "you")

	out, err = run(t, cfg, "map", "1", "--from", "nowhere")
	require.Error(t, err)
	assert.Empty(t, out)

	out, err = run(t, cfg, "path", "1", "stairs")
	require.NoError(t, err)
	assert.Contains(t, out, "->")

	out, err = run(t, cfg, "path", "1", "boss")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "No route from "), out)
}

func TestMapForPlayerWithoutRecord(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	_, err := run(t, cfg, "map", "1", "--player", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never visited floor 1")
}

func TestResolve(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	out, err := run(t, cfg, "resolve", "Alice", "gate", "25")
	require.NoError(t, err)
	assert.Equal(t, "Recorded gate_resolved on floor 25 for alice.\n", out)

	out, err = run(t, cfg, "resolve", "alice", "gate", "25")
	require.NoError(t, err)
	assert.Equal(t, "gate_resolved on floor 25 was already recorded for alice.\n", out)

	out, err = run(t, cfg, "resolve", "alice", "gate", "25", "--undo")
	require.NoError(t, err)
	assert.Equal(t, "Removed gate_resolved on floor 25 for alice.\n", out)

	out, err = run(t, cfg, "resolve", "alice", "gate", "25", "--undo")
	require.NoError(t, err)
	assert.Equal(t, "alice has no gate_resolved on floor 25.\n", out)

	_, err = run(t, cfg, "resolve", "alice", "gate", "3")
	assert.ErrorContains(t, err, "not a gate floor")
	_, err = run(t, cfg, "resolve", "alice", "seal", "25")
	assert.ErrorContains(t, err, "not a seal floor")
	_, err = run(t, cfg, "resolve", "alice", "crown", "25")
	assert.ErrorIs(t, err, progression.ErrUnknownFlagKind)
}

func TestStateAndMigrate(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	ctx := context.Background()

	out, err := run(t, cfg, "state", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice has no floor records.\n", out)

	srcPath := filepath.Join(dir, "old.db")
	src, err := database.Open(srcPath)
	require.NoError(t, err)
	state := tower.NewFloorState(2)
	state.CurrentRoomID = "r0"
	state.Room("r0").IsExplored = true
	state.Room("r0").IsCleared = true
	require.NoError(t, src.SaveFloorState(ctx, "alice", state))
	_, err = src.RecordStoryFlag(ctx, "alice", progression.FlagSealCollected, 15)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	out, err = run(t, cfg, "migrate", "--sqlite", srcPath, "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "Would migrate 1 players to sqlite: 0 accounts, 1 floor records, 1 story flags.\n", out)

	out, err = run(t, cfg, "migrate", "--sqlite", srcPath)
	require.NoError(t, err)
	assert.Equal(t, "Migrated 1 players to sqlite: 0 accounts, 1 floor records, 1 story flags.\n", out)

	out, err = run(t, cfg, "state", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "FLOOR")
	assert.Contains(t, out, "never cleared")
	assert.Contains(t, out, "Gates resolved: none")
	assert.Contains(t, out, "Seals collected: 15")

	out, err = run(t, cfg, "state", "alice", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Floor 2 for alice: standing in r0"), out)
	assert.Contains(t, out, "explored, cleared")

	_, err = run(t, cfg, "state", "alice", "3")
	assert.ErrorContains(t, err, "never visited floor 3")
}

func TestMigrateRequiresSource(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	_, err := run(t, cfg, "migrate")
	assert.Error(t, err)
}
