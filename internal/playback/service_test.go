package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/sfxboard/internal/catalog"
	"github.com/foxseedlab/sfxboard/internal/config"
	"github.com/foxseedlab/sfxboard/internal/discord"
	"github.com/foxseedlab/sfxboard/internal/reply"
	"github.com/foxseedlab/sfxboard/internal/repository"
	"github.com/foxseedlab/sfxboard/internal/voice"
	"github.com/foxseedlab/sfxboard/internal/webhook"
)

type mockCatalogRepo struct {
	effects []repository.SoundEffect
}

func (m *mockCatalogRepo) ListSoundEffects(_ context.Context) ([]repository.SoundEffect, error) {
	out := make([]repository.SoundEffect, len(m.effects))
	copy(out, m.effects)
	return out, nil
}

func (m *mockCatalogRepo) InsertSoundEffect(_ context.Context, input repository.InsertSoundEffectInput) (*repository.SoundEffect, error) {
	sfx := repository.SoundEffect{ID: len(m.effects) + 1, Name: input.Name, Icon: input.Icon}
	m.effects = append(m.effects, sfx)
	return &sfx, nil
}

func (m *mockCatalogRepo) UpdateSoundEffect(_ context.Context, _ repository.UpdateSoundEffectInput) (*repository.SoundEffect, error) {
	return nil, errors.New("not implemented")
}

type mockHistoryRepo struct {
	mu        sync.Mutex
	inserts   []repository.InsertUsageInput
	insertErr error
	recent    []repository.RecentUse
	feed      []repository.HistoryRecord
}

func (m *mockHistoryRepo) InsertUsage(_ context.Context, input repository.InsertUsageInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserts = append(m.inserts, input)
	return nil
}

func (m *mockHistoryRepo) RecentDistinctByUser(_ context.Context, _ string, limit int) ([]repository.RecentUse, error) {
	if len(m.recent) > limit {
		return m.recent[:limit], nil
	}
	return m.recent, nil
}

func (m *mockHistoryRepo) GlobalFeed(_ context.Context, limit int) ([]repository.HistoryRecord, error) {
	if len(m.feed) > limit {
		return m.feed[:limit], nil
	}
	return m.feed, nil
}

type mockVoicePlayer struct {
	mu       sync.Mutex
	requests []voice.PlayRequest
	playErr  error
}

func (m *mockVoicePlayer) PlayFor(_ context.Context, req voice.PlayRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.requests = append(m.requests, req)
	return nil
}

func (m *mockVoicePlayer) AwaitNextPlay(_ int) <-chan string {
	ch := make(chan string, 1)
	return ch
}

type mockSender struct {
	mu     sync.Mutex
	events []webhook.PlayEvent
}

func (m *mockSender) SendPlayEvent(_ context.Context, event webhook.PlayEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

type mockDeleter struct{}

func (mockDeleter) DeleteMessage(_, _ string) error { return nil }

func testService(t *testing.T, history *mockHistoryRepo, vp *mockVoicePlayer) *Service {
	t.Helper()
	cfg := &config.Config{
		DatabaseURL:           "postgres://localhost/test",
		DiscordToken:          "token",
		SoundDirectory:        "data/sounds",
		ReaperInterval:        10 * time.Second,
		ReplyTTL:              time.Minute,
		MaxSoundEffectSeconds: 30,
	}
	cat := catalog.New(&mockCatalogRepo{effects: []repository.SoundEffect{
		{ID: 1, Name: "blast", Icon: "🔥", FilePath: "data/sounds/blast.opus"},
		{ID: 2, Name: "horn", Icon: "🎺", FilePath: "data/sounds/horn.opus"},
	}})
	if err := cat.Load(context.Background()); err != nil {
		t.Fatalf("catalog load failed: %v", err)
	}
	replies := reply.NewCoordinator(mockDeleter{}, time.Minute)
	return NewService(cfg, cat, history, vp, replies, &mockSender{})
}

func TestPlay_ByName(t *testing.T) {
	history := &mockHistoryRepo{}
	vp := &mockVoicePlayer{}
	s := testService(t, history, vp)

	outcome := s.Play(context.Background(), Request{GuildID: "g1", UserID: "u1", SoundEffectName: "blast"})
	if !outcome.Accepted() {
		t.Fatalf("expected accepted outcome, got %v", outcome.Err)
	}
	if outcome.SoundEffect.ID != 1 {
		t.Fatalf("wrong effect: %d", outcome.SoundEffect.ID)
	}
	if len(vp.requests) != 1 {
		t.Fatalf("expected one voice play, got %d", len(vp.requests))
	}
	if len(history.inserts) != 1 || history.inserts[0].SoundEffectID != 1 {
		t.Fatalf("expected history record for effect 1, got %v", history.inserts)
	}
}

func TestPlay_ByID(t *testing.T) {
	history := &mockHistoryRepo{}
	vp := &mockVoicePlayer{}
	s := testService(t, history, vp)

	id := 2
	outcome := s.Play(context.Background(), Request{GuildID: "g1", UserID: "u1", SoundEffectID: &id})
	if !outcome.Accepted() {
		t.Fatalf("expected accepted outcome, got %v", outcome.Err)
	}
	if outcome.SoundEffect.Name != "horn" {
		t.Fatalf("wrong effect: %s", outcome.SoundEffect.Name)
	}
}

func TestPlay_UnknownNameRejected(t *testing.T) {
	history := &mockHistoryRepo{}
	vp := &mockVoicePlayer{}
	s := testService(t, history, vp)

	outcome := s.Play(context.Background(), Request{GuildID: "g1", UserID: "u1", SoundEffectName: "nope"})
	if outcome.Accepted() {
		t.Fatal("expected rejection")
	}
	if outcome.Reason != RejectNotFound {
		t.Fatalf("expected not_found, got %s", outcome.Reason)
	}
	if len(vp.requests) != 0 {
		t.Fatal("unknown effect must not reach the voice manager")
	}
	if len(history.inserts) != 0 {
		t.Fatal("rejected play must not be recorded")
	}
}

func TestPlay_SelectorErrorsMapToReasons(t *testing.T) {
	cases := []struct {
		err    error
		reason RejectReason
	}{
		{voice.ErrNoVoiceChannels, RejectNoViableChannel},
		{voice.ErrMissingPermissions, RejectMissingPermissions},
		{errors.New("gateway exploded"), RejectTransportFailure},
	}
	for _, tc := range cases {
		history := &mockHistoryRepo{}
		vp := &mockVoicePlayer{playErr: tc.err}
		s := testService(t, history, vp)

		outcome := s.Play(context.Background(), Request{GuildID: "g1", UserID: "u1", SoundEffectName: "blast"})
		if outcome.Accepted() {
			t.Fatalf("expected rejection for %v", tc.err)
		}
		if outcome.Reason != tc.reason {
			t.Fatalf("expected %s for %v, got %s", tc.reason, tc.err, outcome.Reason)
		}
		if len(history.inserts) != 0 {
			t.Fatal("failed play must not be recorded")
		}
	}
}

func TestPlay_HistoryWriteFailureSurfaced(t *testing.T) {
	history := &mockHistoryRepo{insertErr: errors.New("disk full")}
	vp := &mockVoicePlayer{}
	s := testService(t, history, vp)

	outcome := s.Play(context.Background(), Request{GuildID: "g1", UserID: "u1", SoundEffectName: "blast"})
	if outcome.Accepted() {
		t.Fatal("history write failure must be surfaced")
	}
	if outcome.Reason != RejectStoreWriteFailure {
		t.Fatalf("expected store_write_failure, got %s", outcome.Reason)
	}
}

func TestRecent_SkipsUnknownEffects(t *testing.T) {
	history := &mockHistoryRepo{recent: []repository.RecentUse{
		{SoundEffectID: 2, LastPlayedAt: time.Now()},
		{SoundEffectID: 99, LastPlayedAt: time.Now().Add(-time.Minute)},
		{SoundEffectID: 1, LastPlayedAt: time.Now().Add(-2 * time.Minute)},
	}}
	s := testService(t, history, &mockVoicePlayer{})

	recent, err := s.Recent(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Name != "horn" || recent[1].Name != "blast" {
		t.Fatalf("unexpected recent list: %v", recent)
	}
}

func TestSuggest_EmptyQueryUsesRecency(t *testing.T) {
	history := &mockHistoryRepo{recent: []repository.RecentUse{
		{SoundEffectID: 1, LastPlayedAt: time.Now()},
	}}
	s := testService(t, history, &mockVoicePlayer{})

	matches, err := s.Suggest(context.Background(), "u1", "", 25)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "blast" {
		t.Fatalf("expected recent effect blast, got %v", matches)
	}
}

func TestSuggest_QueryUsesPartialMatch(t *testing.T) {
	s := testService(t, &mockHistoryRepo{}, &mockVoicePlayer{})

	matches, err := s.Suggest(context.Background(), "u1", "hor", 25)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "horn" {
		t.Fatalf("expected horn, got %v", matches)
	}
}

func TestFeed_ResolvesCatalogEntries(t *testing.T) {
	now := time.Now()
	history := &mockHistoryRepo{feed: []repository.HistoryRecord{
		{PlayedAt: now, UserID: "u1", GuildID: "g1", SoundEffectID: 1},
		{PlayedAt: now.Add(-time.Minute), UserID: "u2", GuildID: "g1", SoundEffectID: 99},
	}}
	s := testService(t, history, &mockVoicePlayer{})

	feed, err := s.Feed(context.Background(), 20)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(feed))
	}
	if feed[0].SoundEffect == nil || feed[0].SoundEffect.Name != "blast" {
		t.Fatalf("expected resolved effect, got %+v", feed[0])
	}
	if feed[1].SoundEffect != nil {
		t.Fatal("unknown effect must resolve to nil")
	}
}

func TestHandleSlashCommand_PlayRespondsEphemerally(t *testing.T) {
	history := &mockHistoryRepo{}
	s := testService(t, history, &mockVoicePlayer{})

	var gotContent string
	s.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:     "g1",
		ChannelID:   "ch",
		CommandName: "x",
		UserID:      "u1",
		Options:     map[string]string{"search": "blast"},
		RespondEphemeral: func(content string) (discord.ReplyMessage, error) {
			gotContent = content
			return discord.ReplyMessage{ID: "m1", ChannelID: "ch", CreatedAt: time.Now()}, nil
		},
	})
	if gotContent != "🔥 `blast`" {
		t.Fatalf("unexpected reply content: %q", gotContent)
	}
	if len(history.inserts) != 1 {
		t.Fatalf("expected usage recorded, got %d", len(history.inserts))
	}
}

func TestHandleAutocomplete_ReturnsChoices(t *testing.T) {
	s := testService(t, &mockHistoryRepo{}, &mockVoicePlayer{})

	var got []discord.AutocompleteChoice
	s.HandleAutocomplete(discord.AutocompleteEvent{
		CommandName: "x",
		UserID:      "u1",
		Partial:     "bla",
		Respond: func(choices []discord.AutocompleteChoice) error {
			got = choices
			return nil
		},
	})
	if len(got) != 1 || got[0].Value != "blast" || got[0].Name != "🔥 blast" {
		t.Fatalf("unexpected choices: %v", got)
	}
}
