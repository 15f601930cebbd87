package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

const roomColumns = `room_id, is_explored, is_cleared, treasure_looted, trap_triggered, event_completed,
	puzzle_solved, riddle_answered, lore_collected, insight_granted, memory_triggered,
	secret_boss_defeated, seal_claimed`

// LoadFloorState returns the player's record of a floor, or nil if they
// have never saved it.
func (d *Database) LoadFloorState(ctx context.Context, playerID string, level int) (*tower.FloorState, error) {
	row := d.db.QueryRowContext(ctx, d.qb.Build(`
		SELECT floor_level, last_visited_at, last_cleared_at, current_room_id,
			ever_cleared, permanently_clear, boss_defeated
		FROM floor_states
		WHERE player_id = ? AND floor_level = ?`), playerID, level)

	state, err := scanFloorState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load floor state: %w", err)
	}

	rooms, err := d.loadRoomStates(ctx, playerID, level)
	if err != nil {
		return nil, err
	}
	if rs, ok := rooms[level]; ok {
		state.RoomStates = rs
	}
	return state, nil
}

// ListFloorStates returns every floor record of the player, shallowest
// first.
func (d *Database) ListFloorStates(ctx context.Context, playerID string) ([]*tower.FloorState, error) {
	rows, err := d.db.QueryContext(ctx, d.qb.Build(`
		SELECT floor_level, last_visited_at, last_cleared_at, current_room_id,
			ever_cleared, permanently_clear, boss_defeated
		FROM floor_states
		WHERE player_id = ?
		ORDER BY floor_level`), playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list floor states: %w", err)
	}

	var states []*tower.FloorState
	for rows.Next() {
		state, err := scanFloorState(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan floor state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rooms, err := d.loadRoomStates(ctx, playerID, 0)
	if err != nil {
		return nil, err
	}
	for _, st := range states {
		if rs, ok := rooms[st.FloorLevel]; ok {
			st.RoomStates = rs
		}
	}
	return states, nil
}

// SaveFloorState replaces the stored record of state's floor.
func (d *Database) SaveFloorState(ctx context.Context, playerID string, state *tower.FloorState) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var cleared sql.NullTime
	if !state.LastClearedAt.IsZero() {
		cleared = sql.NullTime{Time: state.LastClearedAt.UTC(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, d.qb.Build(`
		INSERT INTO floor_states (player_id, floor_level, last_visited_at, last_cleared_at,
			current_room_id, ever_cleared, permanently_clear, boss_defeated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, floor_level) DO UPDATE SET
			last_visited_at = excluded.last_visited_at,
			last_cleared_at = excluded.last_cleared_at,
			current_room_id = excluded.current_room_id,
			ever_cleared = excluded.ever_cleared,
			permanently_clear = excluded.permanently_clear,
			boss_defeated = excluded.boss_defeated`),
		playerID, state.FloorLevel, state.LastVisitedAt.UTC(), cleared, state.CurrentRoomID,
		boolToInt(state.EverCleared), boolToInt(state.PermanentlyClear), boolToInt(state.BossDefeated))
	if err != nil {
		return fmt.Errorf("failed to save floor state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, d.qb.Build(
		`DELETE FROM room_states WHERE player_id = ? AND floor_level = ?`),
		playerID, state.FloorLevel); err != nil {
		return fmt.Errorf("failed to clear room states: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, d.qb.Build(`
		INSERT INTO room_states (player_id, floor_level, `+roomColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare room insert: %w", err)
	}
	defer stmt.Close()

	for roomID, rs := range state.RoomStates {
		if rs == nil {
			continue
		}
		_, err := stmt.ExecContext(ctx, playerID, state.FloorLevel, roomID,
			boolToInt(rs.IsExplored), boolToInt(rs.IsCleared), boolToInt(rs.TreasureLooted),
			boolToInt(rs.TrapTriggered), boolToInt(rs.EventCompleted), boolToInt(rs.PuzzleSolved),
			boolToInt(rs.RiddleAnswered), boolToInt(rs.LoreCollected), boolToInt(rs.InsightGranted),
			boolToInt(rs.MemoryTriggered), boolToInt(rs.SecretBossDefeated), boolToInt(rs.SealClaimed))
		if err != nil {
			return fmt.Errorf("failed to save room %s: %w", roomID, err)
		}
	}

	return tx.Commit()
}

// loadRoomStates returns room states by floor. A level of 0 loads every
// floor of the player.
func (d *Database) loadRoomStates(ctx context.Context, playerID string, level int) (map[int]map[string]*world.RoomState, error) {
	query := `SELECT floor_level, ` + roomColumns + ` FROM room_states WHERE player_id = ?`
	args := []any{playerID}
	if level > 0 {
		query += ` AND floor_level = ?`
		args = append(args, level)
	}

	rows, err := d.db.QueryContext(ctx, d.qb.Build(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load room states: %w", err)
	}
	defer rows.Close()

	out := make(map[int]map[string]*world.RoomState)
	for rows.Next() {
		var (
			floor  int
			roomID string
			flags  [12]int
		)
		dest := []any{&floor, &roomID}
		for i := range flags {
			dest = append(dest, &flags[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan room state: %w", err)
		}

		if out[floor] == nil {
			out[floor] = make(map[string]*world.RoomState)
		}
		out[floor][roomID] = &world.RoomState{
			IsExplored:         flags[0] != 0,
			IsCleared:          flags[1] != 0,
			TreasureLooted:     flags[2] != 0,
			TrapTriggered:      flags[3] != 0,
			EventCompleted:     flags[4] != 0,
			PuzzleSolved:       flags[5] != 0,
			RiddleAnswered:     flags[6] != 0,
			LoreCollected:      flags[7] != 0,
			InsightGranted:     flags[8] != 0,
			MemoryTriggered:    flags[9] != 0,
			SecretBossDefeated: flags[10] != 0,
			SealClaimed:        flags[11] != 0,
		}
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFloorState(row scanner) (*tower.FloorState, error) {
	var state tower.FloorState
	var visited time.Time
	var cleared sql.NullTime
	var ever, pinned, bossDefeated int
	if err := row.Scan(&state.FloorLevel, &visited, &cleared, &state.CurrentRoomID, &ever, &pinned, &bossDefeated); err != nil {
		return nil, err
	}
	state.LastVisitedAt = visited.UTC()
	if cleared.Valid {
		state.LastClearedAt = cleared.Time.UTC()
	}
	state.EverCleared = ever != 0
	state.PermanentlyClear = pinned != 0
	state.BossDefeated = bossDefeated != 0
	state.RoomStates = make(map[string]*world.RoomState)
	return &state, nil
}
