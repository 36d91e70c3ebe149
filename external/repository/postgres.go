package repository

import (
	"context"

	"github.com/foxseedlab/sfxboard/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

const soundEffectColumns = `id, name, icon, source_url, file_path, start_millis, end_millis, tags, author_id, guild_id, created_at`

func (r *PostgresRepository) ListSoundEffects(ctx context.Context) ([]repository.SoundEffect, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+soundEffectColumns+` FROM sound_effects ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.SoundEffect
	for rows.Next() {
		var sfx repository.SoundEffect
		if err := rows.Scan(&sfx.ID, &sfx.Name, &sfx.Icon, &sfx.SourceURL, &sfx.FilePath,
			&sfx.StartMillis, &sfx.EndMillis, &sfx.Tags, &sfx.AuthorID, &sfx.GuildID, &sfx.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, sfx)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) InsertSoundEffect(ctx context.Context, input repository.InsertSoundEffectInput) (*repository.SoundEffect, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sound_effects (name, icon, source_url, file_path, start_millis, end_millis, tags, author_id, guild_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+soundEffectColumns,
		input.Name, input.Icon, input.SourceURL, input.FilePath, input.StartMillis,
		input.EndMillis, input.Tags, input.AuthorID, input.GuildID, input.CreatedAt)
	var sfx repository.SoundEffect
	if err := row.Scan(&sfx.ID, &sfx.Name, &sfx.Icon, &sfx.SourceURL, &sfx.FilePath,
		&sfx.StartMillis, &sfx.EndMillis, &sfx.Tags, &sfx.AuthorID, &sfx.GuildID, &sfx.CreatedAt); err != nil {
		return nil, err
	}
	return &sfx, nil
}

func (r *PostgresRepository) UpdateSoundEffect(ctx context.Context, input repository.UpdateSoundEffectInput) (*repository.SoundEffect, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE sound_effects
		 SET name = $2, icon = $3, start_millis = $4, end_millis = $5, tags = $6
		 WHERE id = $1
		 RETURNING `+soundEffectColumns,
		input.ID, input.Name, input.Icon, input.StartMillis, input.EndMillis, input.Tags)
	var sfx repository.SoundEffect
	if err := row.Scan(&sfx.ID, &sfx.Name, &sfx.Icon, &sfx.SourceURL, &sfx.FilePath,
		&sfx.StartMillis, &sfx.EndMillis, &sfx.Tags, &sfx.AuthorID, &sfx.GuildID, &sfx.CreatedAt); err != nil {
		return nil, err
	}
	return &sfx, nil
}

func (r *PostgresRepository) InsertUsage(ctx context.Context, input repository.InsertUsageInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO usage_history (played_at, user_id, guild_id, sound_effect_id)
		 VALUES ($1, $2, $3, $4)`,
		input.PlayedAt, input.UserID, input.GuildID, input.SoundEffectID)
	return err
}

func (r *PostgresRepository) RecentDistinctByUser(ctx context.Context, userID string, limit int) ([]repository.RecentUse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sound_effect_id, MAX(played_at) AS most_recent_use
		 FROM usage_history WHERE user_id = $1
		 GROUP BY sound_effect_id
		 ORDER BY most_recent_use DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.RecentUse
	for rows.Next() {
		var use repository.RecentUse
		if err := rows.Scan(&use.SoundEffectID, &use.LastPlayedAt); err != nil {
			return nil, err
		}
		list = append(list, use)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) GlobalFeed(ctx context.Context, limit int) ([]repository.HistoryRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT played_at, user_id, guild_id, sound_effect_id
		 FROM usage_history
		 ORDER BY played_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.HistoryRecord
	for rows.Next() {
		var rec repository.HistoryRecord
		if err := rows.Scan(&rec.PlayedAt, &rec.UserID, &rec.GuildID, &rec.SoundEffectID); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
