package webhook

import (
	"context"
	"time"
)

// PlayEvent is posted to the configured endpoint after each accepted
// playback.
type PlayEvent struct {
	PlayedAt        time.Time `json:"played_at"`
	UserID          string    `json:"user_id"`
	GuildID         string    `json:"guild_id"`
	SoundEffectID   int       `json:"sound_effect_id"`
	SoundEffectName string    `json:"sound_effect_name"`
}

type Sender interface {
	SendPlayEvent(ctx context.Context, event PlayEvent) error
}
