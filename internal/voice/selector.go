package voice

import (
	"errors"
	"sort"

	"github.com/foxseedlab/sfxboard/internal/discord"
)

var (
	// ErrNoVoiceChannels means there was no voice channel to consider at all.
	ErrNoVoiceChannels = errors.New("no voice channels to connect to")
	// ErrMissingPermissions means every candidate channel denies the bot
	// Connect or Speak.
	ErrMissingPermissions = errors.New("bot needs the Connect and Speak permissions")
)

// ChannelSnapshot is everything SelectChannel needs to decide, captured
// before the call so the decision is a pure function of its input.
type ChannelSnapshot struct {
	// RequesterChannelID is the channel the requesting user currently
	// occupies, or "" if they are not in voice.
	RequesterChannelID string
	// SessionChannelID is the channel the guild's session is connected to,
	// or "" when disconnected.
	SessionChannelID string
	Channels         []discord.VoiceChannel
}

// SelectChannel picks the destination for a playback request. Preference
// order: the requester's own channel, then the channel the session already
// occupies, then the remaining channels by descending occupancy. The first
// candidate the bot can both connect to and speak in wins.
func SelectChannel(snap ChannelSnapshot) (string, error) {
	byID := make(map[string]discord.VoiceChannel, len(snap.Channels))
	for _, ch := range snap.Channels {
		byID[ch.ID] = ch
	}

	var preferred []discord.VoiceChannel
	if ch, ok := byID[snap.RequesterChannelID]; ok && snap.RequesterChannelID != "" {
		preferred = append(preferred, ch)
	}
	if ch, ok := byID[snap.SessionChannelID]; ok && snap.SessionChannelID != "" {
		preferred = append(preferred, ch)
	}

	rest := make([]discord.VoiceChannel, len(snap.Channels))
	copy(rest, snap.Channels)
	sort.SliceStable(rest, func(i, j int) bool {
		return len(rest[i].Occupants) > len(rest[j].Occupants)
	})
	preferred = append(preferred, rest...)

	if len(preferred) == 0 {
		return "", ErrNoVoiceChannels
	}
	for _, ch := range preferred {
		if ch.BotCanConnect && ch.BotCanSpeak {
			return ch.ID, nil
		}
	}
	return "", ErrMissingPermissions
}
