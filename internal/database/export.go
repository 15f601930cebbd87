package database

import (
	"context"
	"fmt"
)

// ListAccounts returns every account ordered by id.
func (d *Database) ListAccounts() ([]*Account, error) {
	rows, err := d.db.Query("SELECT " + accountColumns + " FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// ImportAccount copies an account, password hash included, from another
// database. It returns false when the username is already taken.
func (d *Database) ImportAccount(a *Account) (bool, error) {
	exists, err := d.AccountExists(a.Username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	var lastLogin any
	if a.LastLogin != nil {
		lastLogin = *a.LastLogin
	}
	var lastIP any
	if a.LastIP != "" {
		lastIP = a.LastIP
	}
	_, err = d.db.Exec(
		d.qb.Build(`INSERT INTO accounts (username, password_hash, created_at, last_login, last_ip, banned, is_admin)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.Username, a.PasswordHash, a.CreatedAt, lastLogin, lastIP, boolToInt(a.Banned), boolToInt(a.IsAdmin),
	)
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to import account %s: %w", a.Username, err)
	}
	return true, nil
}

// PlayerIDs returns every player with a floor record or a story flag.
func (d *Database) PlayerIDs(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT player_id FROM floor_states UNION SELECT player_id FROM story_flags ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
