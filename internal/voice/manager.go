// Package voice owns every guild's single voice connection: the channel
// selection, the connect/move/disconnect lifecycle, clip playback dispatch
// and the idle-session reaper.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/sfxboard/internal/audio"
	"github.com/foxseedlab/sfxboard/internal/config"
	"github.com/foxseedlab/sfxboard/internal/discord"
	"github.com/foxseedlab/sfxboard/internal/repository"
)

// Manager holds at most one voice session per guild. Each session has its
// own lock so one guild's connect sequence never blocks another's.
type Manager struct {
	cfg      *config.Config
	discord  discord.Client
	streamer audio.Streamer

	mu       sync.Mutex
	sessions map[string]*session

	waiterMu sync.Mutex
	waiters  map[int][]chan string

	botUserID     string
	reaperStarted bool
	reaperStop    chan struct{}
	reaperDone    chan struct{}
	startOnce     sync.Once
	stopOnce      sync.Once
}

type session struct {
	// mu serializes the select/connect/move/stream-swap sequence for this
	// guild. It is not held while a clip streams.
	mu       sync.Mutex
	conn     discord.VoiceConnection
	playback audio.Playback
}

type PlayRequest struct {
	GuildID     string
	UserID      string
	SoundEffect *repository.SoundEffect
}

func NewManager(cfg *config.Config, dc discord.Client, streamer audio.Streamer) *Manager {
	return &Manager{
		cfg:        cfg,
		discord:    dc,
		streamer:   streamer,
		sessions:   make(map[string]*session),
		waiters:    make(map[int][]chan string),
		reaperStop: make(chan struct{}),
		reaperDone: make(chan struct{}),
	}
}

func (m *Manager) SetBotUserID(id string) {
	m.botUserID = id
}

func (m *Manager) guildSession(guildID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[guildID]
	if !ok {
		sess = &session{}
		m.sessions[guildID] = sess
	}
	return sess
}

// PlayFor connects (or moves) the guild's voice session to the best channel
// for the requesting user and streams the clip there. It returns once the
// stream has been handed off; it does not wait for the clip to finish. If
// something is already playing on the connection it is stopped first.
func (m *Manager) PlayFor(ctx context.Context, req PlayRequest) error {
	sfx := req.SoundEffect
	sess := m.guildSession(req.GuildID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	conn, err := m.ensureConnectedLocked(req.GuildID, req.UserID, sess)
	if err != nil {
		return err
	}

	if sess.playback != nil {
		sess.playback.Stop()
		sess.playback = nil
	}
	playback, err := m.streamer.Stream(ctx, conn, sfx.FilePath, sfx.StartMillis, sfx.EndMillis)
	if err != nil {
		return fmt.Errorf("failed to start clip stream: %w", err)
	}
	sess.playback = playback
	slog.Info("clip stream started",
		"guild_id", req.GuildID, "user_id", req.UserID,
		"sound_effect_id", sfx.ID, "sound_effect", sfx.Name, "channel_id", conn.ChannelID())

	m.resolveWaiters(sfx.ID, req.UserID)
	return nil
}

// ensureConnectedLocked runs the channel selector and reuses, moves or
// freshly connects the session. Selector errors leave the session untouched;
// a failed connect leaves it disconnected. Caller holds sess.mu.
func (m *Manager) ensureConnectedLocked(guildID, userID string, sess *session) (discord.VoiceConnection, error) {
	requesterChannel, err := m.discord.GetUserVoiceChannelID(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve requester's voice channel: %w", err)
	}
	channels, err := m.discord.GuildVoiceChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice channels: %w", err)
	}
	sessionChannel := ""
	if sess.conn != nil && sess.conn.IsConnected() {
		sessionChannel = sess.conn.ChannelID()
	}

	dest, err := SelectChannel(ChannelSnapshot{
		RequesterChannelID: requesterChannel,
		SessionChannelID:   sessionChannel,
		Channels:           channels,
	})
	if err != nil {
		return nil, err
	}

	if sess.conn != nil && sess.conn.IsConnected() {
		if sess.conn.ChannelID() == dest {
			return sess.conn, nil
		}
		if err := sess.conn.Move(dest); err != nil {
			return nil, fmt.Errorf("failed to move to voice channel %s: %w", dest, err)
		}
		slog.Info("voice session moved", "guild_id", guildID, "channel_id", dest)
		// The transport needs settle time after a channel change before
		// audio comes through cleanly.
		time.Sleep(m.cfg.ConnectWarmup)
		return sess.conn, nil
	}

	conn, err := m.discord.JoinVoice(guildID, dest)
	if err != nil {
		sess.conn = nil
		return nil, fmt.Errorf("failed to join voice channel %s: %w", dest, err)
	}
	sess.conn = conn
	slog.Info("voice session connected", "guild_id", guildID, "channel_id", dest)
	time.Sleep(m.cfg.ConnectWarmup)
	return conn, nil
}

// AwaitNextPlay returns a channel that receives the user id of whoever next
// plays the given sound effect, then closes. Each call registers its own
// one-shot waiter.
func (m *Manager) AwaitNextPlay(soundEffectID int) <-chan string {
	ch := make(chan string, 1)
	m.waiterMu.Lock()
	m.waiters[soundEffectID] = append(m.waiters[soundEffectID], ch)
	m.waiterMu.Unlock()
	return ch
}

func (m *Manager) resolveWaiters(soundEffectID int, userID string) {
	m.waiterMu.Lock()
	pending := m.waiters[soundEffectID]
	delete(m.waiters, soundEffectID)
	m.waiterMu.Unlock()
	for _, ch := range pending {
		ch <- userID
		close(ch)
	}
}

// StartReaper launches the background sweep that disconnects sessions
// nobody is listening to. Call Close to stop it.
func (m *Manager) StartReaper() {
	m.startOnce.Do(func() {
		m.reaperStarted = true
		go m.reaperLoop()
	})
}

func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.reaperStop)
		if m.reaperStarted {
			<-m.reaperDone
		}
	})
}

func (m *Manager) reaperLoop() {
	defer close(m.reaperDone)
	ticker := time.NewTicker(m.cfg.ReaperInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.reaperStop:
			return
		case <-ticker.C:
			m.reapIdleSessions()
		}
	}
}

// reapIdleSessions disconnects every session whose transport dropped or
// whose channel holds only automated participants. Failures are logged per
// guild; one guild's bad disconnect never blocks the rest of the sweep.
func (m *Manager) reapIdleSessions() {
	m.mu.Lock()
	snapshot := make(map[string]*session, len(m.sessions))
	for guildID, sess := range m.sessions {
		snapshot[guildID] = sess
	}
	m.mu.Unlock()

	for guildID, sess := range snapshot {
		m.maybeReapSession(guildID, sess)
	}
}

func (m *Manager) maybeReapSession(guildID string, sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.conn == nil {
		return
	}
	if !sess.conn.IsConnected() {
		slog.Info("reaping session: transport no longer connected", "guild_id", guildID)
		m.teardownLocked(guildID, sess)
		return
	}
	occupants, err := m.channelOccupants(guildID, sess.conn.ChannelID())
	if err != nil {
		slog.Error("reaper failed to list channel occupants", "error", err, "guild_id", guildID)
		return
	}
	if !m.allAutomated(occupants) {
		return
	}
	slog.Info("reaping session: no human listeners left", "guild_id", guildID, "channel_id", sess.conn.ChannelID())
	m.teardownLocked(guildID, sess)
}

func (m *Manager) channelOccupants(guildID, channelID string) ([]discord.VoiceOccupant, error) {
	channels, err := m.discord.GuildVoiceChannels(guildID)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if ch.ID == channelID {
			return ch.Occupants, nil
		}
	}
	return nil, nil
}

// allAutomated reports whether nobody in the channel is a human. With
// CountOtherBots set, other bots count as listeners and keep the session
// alive.
func (m *Manager) allAutomated(occupants []discord.VoiceOccupant) bool {
	for _, o := range occupants {
		if !o.IsBot {
			return false
		}
		if m.cfg.CountOtherBots && o.UserID != m.botUserID {
			return false
		}
	}
	return true
}

// teardownLocked stops playback and disconnects, best-effort. Caller holds
// sess.mu.
func (m *Manager) teardownLocked(guildID string, sess *session) {
	if sess.playback != nil {
		sess.playback.Stop()
		sess.playback = nil
	}
	if err := sess.conn.Disconnect(); err != nil {
		slog.Error("voice disconnect failed", "error", err, "guild_id", guildID)
	}
	sess.conn = nil
}
