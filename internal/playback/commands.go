package playback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxseedlab/sfxboard/internal/discord"
	"github.com/foxseedlab/sfxboard/internal/reply"
)

const (
	playCommandName    = "x"
	historyCommandName = "sfx-history"

	suggestionLimit = 25
	feedLineLimit   = 20
)

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	return []discord.SlashCommandDefinition{
		{
			Name:        playCommandName,
			Description: "Play a sound effect.",
			Options: []discord.SlashCommandOption{
				{Name: "search", Description: "Look for a sound effect by name.", Required: true, Autocomplete: true},
			},
		},
		{
			Name:        historyCommandName,
			Description: "See the global sound effect history.",
		},
	}
}

func (s *Service) HandleSlashCommand(event discord.SlashCommandEvent) {
	ctx := context.Background()
	switch event.CommandName {
	case playCommandName:
		s.handlePlayCommand(ctx, event)
	case historyCommandName:
		s.handleHistoryCommand(ctx, event)
	}
}

func (s *Service) handlePlayCommand(ctx context.Context, event discord.SlashCommandEvent) {
	outcome := s.Play(ctx, Request{
		GuildID:         event.GuildID,
		UserID:          event.UserID,
		SoundEffectName: event.Options["search"],
	})

	content := playReplyContent(event.Options["search"], outcome)
	msg, err := event.RespondEphemeral(content)
	if err != nil {
		slog.Error("failed to respond to play command", "error", err, "user_id", event.UserID)
		return
	}
	s.replies.Issue(event.UserID, reply.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		CreatedAt: msg.CreatedAt,
	})
}

func playReplyContent(search string, outcome Outcome) string {
	if outcome.Accepted() {
		return fmt.Sprintf("%s `%s`", outcome.SoundEffect.Icon, outcome.SoundEffect.Name)
	}
	switch outcome.Reason {
	case RejectNotFound:
		return fmt.Sprintf("I don't know a sound effect by the name of `%s`.", search)
	case RejectNoViableChannel:
		return "I can't see any voice channels to connect to."
	case RejectMissingPermissions:
		return "I need the `CONNECT` and `SPEAK` permissions."
	case RejectStoreWriteFailure:
		return "The clip played but recording it to history failed."
	default:
		return "Something went wrong connecting to voice, try again."
	}
}

func (s *Service) handleHistoryCommand(ctx context.Context, event discord.SlashCommandEvent) {
	entries, err := s.Feed(ctx, feedLineLimit)
	if err != nil {
		slog.Error("failed to fetch history feed", "error", err, "user_id", event.UserID)
		if _, err := event.RespondEphemeral("Fetching the history failed, try again."); err != nil {
			slog.Error("failed to respond to history command", "error", err)
		}
		return
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.SoundEffect == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("`%s` %s`%12s` <@%s>",
			entry.PlayedAt.Format("15:04:05"), entry.SoundEffect.Icon, entry.SoundEffect.Name, entry.UserID))
	}
	if len(lines) == 0 {
		lines = append(lines, "Nobody has played anything yet.")
	}
	if _, err := event.RespondEphemeral(strings.Join(lines, "\n")); err != nil {
		slog.Error("failed to respond to history command", "error", err)
	}
}

func (s *Service) HandleAutocomplete(event discord.AutocompleteEvent) {
	if event.CommandName != playCommandName {
		return
	}
	ctx := context.Background()
	matches, err := s.Suggest(ctx, event.UserID, event.Partial, suggestionLimit)
	if err != nil {
		slog.Error("failed to build suggestions", "error", err, "user_id", event.UserID)
		return
	}
	choices := make([]discord.AutocompleteChoice, 0, len(matches))
	for _, sfx := range matches {
		choices = append(choices, discord.AutocompleteChoice{
			Name:  fmt.Sprintf("%s %s", sfx.Icon, sfx.Name),
			Value: sfx.Name,
		})
	}
	if err := event.Respond(choices); err != nil {
		slog.Error("failed to respond to autocomplete", "error", err, "user_id", event.UserID)
	}
}
