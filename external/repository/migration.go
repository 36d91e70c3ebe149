package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS sound_effects (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		icon TEXT NOT NULL UNIQUE,
		source_url TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL,
		start_millis INTEGER NOT NULL DEFAULT 0,
		end_millis INTEGER,
		tags TEXT NOT NULL DEFAULT '',
		author_id TEXT NOT NULL,
		guild_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (start_millis >= 0),
		CHECK (end_millis IS NULL OR end_millis >= start_millis)
	)`,
	`CREATE TABLE IF NOT EXISTS usage_history (
		id BIGSERIAL PRIMARY KEY,
		played_at TIMESTAMPTZ NOT NULL,
		user_id TEXT NOT NULL,
		guild_id TEXT NOT NULL,
		sound_effect_id INTEGER NOT NULL REFERENCES sound_effects(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_usage_history_user ON usage_history (user_id, sound_effect_id, played_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_usage_history_played_at ON usage_history (played_at DESC)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
