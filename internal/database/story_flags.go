package database

import (
	"context"
	"fmt"

	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
)

// RecordStoryFlag stores a milestone and reports whether it is new.
// Recording the same flag twice keeps the first timestamp.
func (d *Database) RecordStoryFlag(ctx context.Context, playerID string, kind progression.FlagKind, floor int) (bool, error) {
	result, err := d.db.ExecContext(ctx, d.qb.Build(`
		INSERT INTO story_flags (player_id, kind, floor, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (player_id, kind, floor) DO NOTHING`),
		playerID, string(kind), floor, d.now())
	if err != nil {
		return false, fmt.Errorf("failed to record story flag: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record story flag: %w", err)
	}
	return n == 1, nil
}

// LoadStoryFlags returns every milestone of the player in the order they
// were reached.
func (d *Database) LoadStoryFlags(ctx context.Context, playerID string) ([]progression.StoryFlag, error) {
	rows, err := d.db.QueryContext(ctx, d.qb.Build(`
		SELECT kind, floor, recorded_at
		FROM story_flags
		WHERE player_id = ?
		ORDER BY recorded_at, floor`), playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story flags: %w", err)
	}
	defer rows.Close()

	var flags []progression.StoryFlag
	for rows.Next() {
		f := progression.StoryFlag{PlayerID: playerID}
		var kind string
		if err := rows.Scan(&kind, &f.Floor, &f.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story flag: %w", err)
		}
		f.Kind = progression.FlagKind(kind)
		f.RecordedAt = f.RecordedAt.UTC()
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// DeleteStoryFlag removes a milestone. It reports whether one was removed.
func (d *Database) DeleteStoryFlag(ctx context.Context, playerID string, kind progression.FlagKind, floor int) (bool, error) {
	result, err := d.db.ExecContext(ctx, d.qb.Build(
		`DELETE FROM story_flags WHERE player_id = ? AND kind = ? AND floor = ?`),
		playerID, string(kind), floor)
	if err != nil {
		return false, fmt.Errorf("failed to delete story flag: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
