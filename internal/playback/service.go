// Package playback dispatches inbound requests to the catalog, the voice
// manager and the history store, and reports each outcome back to the
// command layer.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/sfxboard/internal/catalog"
	"github.com/foxseedlab/sfxboard/internal/config"
	"github.com/foxseedlab/sfxboard/internal/reply"
	"github.com/foxseedlab/sfxboard/internal/repository"
	"github.com/foxseedlab/sfxboard/internal/voice"
	"github.com/foxseedlab/sfxboard/internal/webhook"
)

type RejectReason string

const (
	RejectNotFound           RejectReason = "not_found"
	RejectNoViableChannel    RejectReason = "no_viable_channel"
	RejectMissingPermissions RejectReason = "missing_permissions"
	RejectTransportFailure   RejectReason = "transport_failure"
	RejectStoreWriteFailure  RejectReason = "store_write_failure"
)

// Request asks for a clip to be played for a user. Either SoundEffectName
// or SoundEffectID identifies the clip; ID wins when both are set.
type Request struct {
	GuildID         string
	UserID          string
	SoundEffectName string
	SoundEffectID   *int
}

// Outcome is the result of one playback request. SoundEffect is set
// whenever the clip could be resolved, even if a later step failed.
type Outcome struct {
	SoundEffect *repository.SoundEffect
	Reason      RejectReason
	Err         error
}

func (o Outcome) Accepted() bool { return o.Err == nil }

// FeedEntry is one row of the global history feed with its catalog entry
// resolved (nil if the effect is unknown to the current catalog).
type FeedEntry struct {
	PlayedAt    time.Time
	UserID      string
	GuildID     string
	SoundEffect *repository.SoundEffect
}

// VoicePlayer is the slice of the voice manager the dispatcher needs.
type VoicePlayer interface {
	PlayFor(ctx context.Context, req voice.PlayRequest) error
	AwaitNextPlay(soundEffectID int) <-chan string
}

type Service struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	history repository.HistoryRepository
	voice   VoicePlayer
	replies *reply.Coordinator
	webhook webhook.Sender
}

func NewService(cfg *config.Config, cat *catalog.Catalog, history repository.HistoryRepository,
	vm VoicePlayer, replies *reply.Coordinator, wh webhook.Sender) *Service {
	return &Service{
		cfg:     cfg,
		catalog: cat,
		history: history,
		voice:   vm,
		replies: replies,
		webhook: wh,
	}
}

// Play resolves the requested clip, plays it into the guild's voice session
// and records the usage. The history write happens only after the transport
// accepted the stream, and its failure is surfaced, not swallowed.
func (s *Service) Play(ctx context.Context, req Request) Outcome {
	sfx, err := s.resolve(req)
	if err != nil {
		return Outcome{Reason: RejectNotFound, Err: err}
	}

	err = s.voice.PlayFor(ctx, voice.PlayRequest{
		GuildID:     req.GuildID,
		UserID:      req.UserID,
		SoundEffect: sfx,
	})
	if err != nil {
		return Outcome{SoundEffect: sfx, Reason: rejectReasonFor(err), Err: err}
	}

	playedAt := time.Now().UTC()
	if err := s.history.InsertUsage(ctx, repository.InsertUsageInput{
		PlayedAt:      playedAt,
		UserID:        req.UserID,
		GuildID:       req.GuildID,
		SoundEffectID: sfx.ID,
	}); err != nil {
		slog.Error("failed to record usage", "error", err, "user_id", req.UserID, "sound_effect_id", sfx.ID)
		return Outcome{SoundEffect: sfx, Reason: RejectStoreWriteFailure, Err: fmt.Errorf("failed to record usage: %w", err)}
	}

	go s.notifyPlayed(playedAt, req, sfx)
	return Outcome{SoundEffect: sfx}
}

func (s *Service) resolve(req Request) (*repository.SoundEffect, error) {
	if req.SoundEffectID != nil {
		return s.catalog.ByID(*req.SoundEffectID)
	}
	return s.catalog.ByName(req.SoundEffectName)
}

func rejectReasonFor(err error) RejectReason {
	switch {
	case errors.Is(err, voice.ErrNoVoiceChannels):
		return RejectNoViableChannel
	case errors.Is(err, voice.ErrMissingPermissions):
		return RejectMissingPermissions
	default:
		return RejectTransportFailure
	}
}

func (s *Service) notifyPlayed(playedAt time.Time, req Request, sfx *repository.SoundEffect) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.webhook.SendPlayEvent(ctx, webhook.PlayEvent{
		PlayedAt:        playedAt,
		UserID:          req.UserID,
		GuildID:         req.GuildID,
		SoundEffectID:   sfx.ID,
		SoundEffectName: sfx.Name,
	})
	if err != nil {
		slog.Error("failed to send play webhook", "error", err, "sound_effect_id", sfx.ID)
	}
}

// Search returns catalog matches for a partial name, best first.
func (s *Service) Search(query string) []repository.SoundEffect {
	return s.catalog.FindPartial(query)
}

// Suggest backs name autocompletion: with an empty query it returns the
// user's most recently used effects, otherwise partial-name matches.
func (s *Service) Suggest(ctx context.Context, userID, query string, limit int) ([]repository.SoundEffect, error) {
	if query == "" {
		return s.Recent(ctx, userID, limit)
	}
	matches := s.catalog.FindPartial(query)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Recent returns the user's distinct recently played effects, most recent
// first. Effects no longer in the catalog are skipped.
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]repository.SoundEffect, error) {
	uses, err := s.history.RecentDistinctByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent usage: %w", err)
	}
	out := make([]repository.SoundEffect, 0, len(uses))
	for _, use := range uses {
		sfx, err := s.catalog.ByID(use.SoundEffectID)
		if err != nil {
			continue
		}
		out = append(out, *sfx)
	}
	return out, nil
}

// Feed returns the global play history, newest first.
func (s *Service) Feed(ctx context.Context, limit int) ([]FeedEntry, error) {
	records, err := s.history.GlobalFeed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history feed: %w", err)
	}
	out := make([]FeedEntry, 0, len(records))
	for _, rec := range records {
		entry := FeedEntry{
			PlayedAt: rec.PlayedAt,
			UserID:   rec.UserID,
			GuildID:  rec.GuildID,
		}
		if sfx, err := s.catalog.ByID(rec.SoundEffectID); err == nil {
			entry.SoundEffect = sfx
		}
		out = append(out, entry)
	}
	return out, nil
}

// Create adds a new sound effect to the catalog.
func (s *Service) Create(ctx context.Context, draft catalog.Draft) (*repository.SoundEffect, error) {
	return s.catalog.Create(ctx, draft)
}

// Edit re-validates and updates an existing sound effect.
func (s *Service) Edit(ctx context.Context, id int, draft catalog.Draft) (*repository.SoundEffect, error) {
	return s.catalog.Edit(ctx, id, draft)
}

// AwaitNextPlay resolves with the user who next plays the given effect.
func (s *Service) AwaitNextPlay(soundEffectID int) <-chan string {
	return s.voice.AwaitNextPlay(soundEffectID)
}
