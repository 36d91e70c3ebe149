package repository

import (
	"context"
	"time"
)

type InsertSoundEffectInput struct {
	Name        string
	Icon        string
	SourceURL   string
	FilePath    string
	StartMillis int
	EndMillis   *int
	Tags        string
	AuthorID    string
	GuildID     string
	CreatedAt   time.Time
}

type UpdateSoundEffectInput struct {
	ID          int
	Name        string
	Icon        string
	StartMillis int
	EndMillis   *int
	Tags        string
}

type InsertUsageInput struct {
	PlayedAt      time.Time
	UserID        string
	GuildID       string
	SoundEffectID int
}

type SoundEffectRepository interface {
	ListSoundEffects(ctx context.Context) ([]SoundEffect, error)
	InsertSoundEffect(ctx context.Context, input InsertSoundEffectInput) (*SoundEffect, error)
	UpdateSoundEffect(ctx context.Context, input UpdateSoundEffectInput) (*SoundEffect, error)
}

type HistoryRepository interface {
	InsertUsage(ctx context.Context, input InsertUsageInput) error
	RecentDistinctByUser(ctx context.Context, userID string, limit int) ([]RecentUse, error)
	GlobalFeed(ctx context.Context, limit int) ([]HistoryRecord, error)
}

type Repository interface {
	SoundEffectRepository
	HistoryRepository
}
