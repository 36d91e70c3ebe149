package discord

import (
	"context"
	"time"
)

type SlashCommandDefinition struct {
	Name        string
	Description string
	Options     []SlashCommandOption
}

type SlashCommandOption struct {
	Name         string
	Description  string
	Required     bool
	Autocomplete bool
}

// ReplyMessage identifies a message the bot posted, with the
// server-assigned creation time.
type ReplyMessage struct {
	ID        string
	ChannelID string
	CreatedAt time.Time
}

type SlashCommandEvent struct {
	GuildID     string
	ChannelID   string
	CommandName string
	UserID      string
	Options     map[string]string
	// RespondEphemeral posts a transient reply visible only to the caller
	// and returns its server-side message reference.
	RespondEphemeral func(content string) (ReplyMessage, error)
}

type AutocompleteEvent struct {
	GuildID     string
	CommandName string
	UserID      string
	Partial     string
	Respond     func(choices []AutocompleteChoice) error
}

type AutocompleteChoice struct {
	Name  string
	Value string
}

type VoiceOccupant struct {
	UserID string
	IsBot  bool
}

// VoiceChannel is a point-in-time snapshot of one voice channel as the bot
// sees it: who is in it and whether the bot may join and make noise.
type VoiceChannel struct {
	ID            string
	Name          string
	Position      int
	Occupants     []VoiceOccupant
	BotCanConnect bool
	BotCanSpeak   bool
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Run() error
	GetBotUserID() (string, error)
	GuildVoiceChannels(guildID string) ([]VoiceChannel, error)
	GetUserVoiceChannelID(guildID, userID string) (string, error)
	JoinVoice(guildID, channelID string) (VoiceConnection, error)
	DeleteMessage(channelID, messageID string) error
	RegisterSlashCommandHandler(handler func(SlashCommandEvent))
	RegisterAutocompleteHandler(handler func(AutocompleteEvent))
	UpsertGuildSlashCommands(guildID string, defs []SlashCommandDefinition) error
}

// VoiceConnection is one live connection to a voice channel. A guild has at
// most one.
type VoiceConnection interface {
	ChannelID() string
	IsConnected() bool
	Move(channelID string) error
	Disconnect() error
	Speaking(on bool) error
	OpusSend() chan<- []byte
}
