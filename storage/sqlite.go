package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

func openSQLite(path string) (*sqliteStore, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0755)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		channel_id  TEXT PRIMARY KEY,
		guild_id    TEXT NOT NULL,
		owner_id    TEXT NOT NULL,
		state       TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_guild ON tickets(guild_id);
	CREATE INDEX IF NOT EXISTS idx_tickets_owner ON tickets(guild_id, owner_id);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) RecordOpen(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (channel_id, guild_id, owner_id, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		r.ChannelID, r.GuildID, r.OwnerID, r.State,
		r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqliteStore) RecordState(ctx context.Context, channelID, state string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tickets SET state = ?, updated_at = ? WHERE channel_id = ?",
		state, time.Now().UTC().Format(time.RFC3339), channelID,
	)
	return err
}

func (s *sqliteStore) ListByGuild(ctx context.Context, guildID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT channel_id, guild_id, owner_id, state, created_at, updated_at FROM tickets WHERE guild_id = ? ORDER BY created_at",
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var created, updated string
		if err := rows.Scan(&r.ChannelID, &r.GuildID, &r.OwnerID, &r.State, &created, &updated); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		r.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
