package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/sfxboard/internal/discord"
)

type Client struct {
	session   *discordgo.Session
	token     string
	botUserID string
}

func NewClient(token string) discordpkg.Client {
	return &Client{
		token: token,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates)
	s.State.TrackChannels = true
	s.State.TrackVoice = true
	if err := s.Open(); err != nil {
		return err
	}
	userID, err := c.GetBotUserID()
	if err != nil {
		return err
	}
	c.botUserID = userID
	return nil
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) Run() error {
	select {}
}

func (c *Client) GetBotUserID() (string, error) {
	if c.botUserID != "" {
		return c.botUserID, nil
	}
	if c.session == nil {
		return "", fmt.Errorf("discord session is not initialized")
	}
	if c.session.State != nil && c.session.State.User != nil && c.session.State.User.ID != "" {
		c.botUserID = c.session.State.User.ID
		return c.botUserID, nil
	}
	u, err := c.session.User("@me")
	if err != nil {
		return "", err
	}
	c.botUserID = u.ID
	return c.botUserID, nil
}

// GuildVoiceChannels snapshots every voice channel in the guild: stable
// ordering, current occupants and whether the bot may connect and speak.
func (c *Client) GuildVoiceChannels(guildID string) ([]discordpkg.VoiceChannel, error) {
	channels, voiceStates, err := c.guildChannelState(guildID)
	if err != nil {
		return nil, err
	}

	occupantsByChannel := make(map[string][]discordpkg.VoiceOccupant)
	seen := make(map[string]struct{})
	for _, state := range voiceStates {
		if state == nil || state.ChannelID == "" || state.UserID == "" {
			continue
		}
		if _, exists := seen[state.UserID]; exists {
			continue
		}
		seen[state.UserID] = struct{}{}
		occupantsByChannel[state.ChannelID] = append(occupantsByChannel[state.ChannelID], discordpkg.VoiceOccupant{
			UserID: state.UserID,
			IsBot:  c.resolveUserIsBot(guildID, state.UserID, state),
		})
	}

	out := make([]discordpkg.VoiceChannel, 0, len(channels))
	for _, ch := range channels {
		if ch == nil || ch.Type != discordgo.ChannelTypeGuildVoice {
			continue
		}
		perms, err := c.botChannelPermissions(ch.ID)
		if err != nil {
			slog.Warn("failed to resolve bot permissions for channel", "error", err, "channel_id", ch.ID)
			continue
		}
		out = append(out, discordpkg.VoiceChannel{
			ID:            ch.ID,
			Name:          ch.Name,
			Position:      ch.Position,
			Occupants:     occupantsByChannel[ch.ID],
			BotCanConnect: perms&discordgo.PermissionVoiceConnect != 0,
			BotCanSpeak:   perms&discordgo.PermissionVoiceSpeak != 0,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (c *Client) guildChannelState(guildID string) ([]*discordgo.Channel, []*discordgo.VoiceState, error) {
	if c.session.State != nil {
		guild, err := c.session.State.Guild(guildID)
		if err == nil && guild != nil && len(guild.Channels) > 0 {
			return guild.Channels, guild.VoiceStates, nil
		}
	}
	// State can be cold right after startup; fall back to the REST API.
	channels, err := c.session.GuildChannels(guildID)
	if err != nil {
		return nil, nil, err
	}
	return channels, nil, nil
}

func (c *Client) botChannelPermissions(channelID string) (int64, error) {
	return c.session.UserChannelPermissions(c.botUserID, channelID)
}

func (c *Client) GetUserVoiceChannelID(guildID, userID string) (string, error) {
	if c.session == nil {
		return "", nil
	}
	if c.session.State != nil {
		vs, err := c.session.State.VoiceState(guildID, userID)
		if err == nil && vs != nil {
			return vs.ChannelID, nil
		}
		guild, err := c.session.State.Guild(guildID)
		if err == nil && guild != nil {
			for _, state := range guild.VoiceStates {
				if state != nil && state.UserID == userID {
					return state.ChannelID, nil
				}
			}
		}
	}

	// Cache may be cold right after bot startup; ask Discord API directly as fallback.
	vs, err := c.session.UserVoiceState(guildID, userID)
	if err != nil {
		if isRESTNotFound(err) {
			return "", nil
		}
		return "", err
	}
	if vs == nil {
		return "", nil
	}
	return vs.ChannelID, nil
}

func isRESTNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == http.StatusNotFound
}

func (c *Client) JoinVoice(guildID, channelID string) (discordpkg.VoiceConnection, error) {
	vc, err := c.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, err
	}
	return &voiceConnectionImpl{vc: vc}, nil
}

func (c *Client) DeleteMessage(channelID, messageID string) error {
	return c.session.ChannelMessageDelete(channelID, messageID)
}

func (c *Client) RegisterSlashCommandHandler(handler func(discordpkg.SlashCommandEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := ic.ApplicationCommandData()
		if data.Name == "" {
			return
		}
		userID := interactionUserID(ic)
		if userID == "" {
			return
		}
		options := make(map[string]string, len(data.Options))
		for _, opt := range data.Options {
			if opt != nil && opt.Type == discordgo.ApplicationCommandOptionString {
				options[opt.Name] = opt.StringValue()
			}
		}
		slog.Info("slash command interaction received", "guild_id", ic.GuildID, "channel_id", ic.ChannelID, "command", data.Name, "user_id", userID)
		handler(discordpkg.SlashCommandEvent{
			GuildID:     ic.GuildID,
			ChannelID:   ic.ChannelID,
			CommandName: data.Name,
			UserID:      userID,
			Options:     options,
			RespondEphemeral: func(content string) (discordpkg.ReplyMessage, error) {
				return c.respondEphemeral(s, ic, content)
			},
		})
	})
}

// respondEphemeral answers the interaction and reads the posted message
// back, because the server-assigned timestamp is only known after the fact.
func (c *Client) respondEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate, content string) (discordpkg.ReplyMessage, error) {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		return discordpkg.ReplyMessage{}, err
	}
	msg, err := s.InteractionResponse(ic.Interaction)
	if err != nil {
		return discordpkg.ReplyMessage{}, err
	}
	return discordpkg.ReplyMessage{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		CreatedAt: msg.Timestamp,
	}, nil
}

func (c *Client) RegisterAutocompleteHandler(handler func(discordpkg.AutocompleteEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionApplicationCommandAutocomplete {
			return
		}
		data := ic.ApplicationCommandData()
		userID := interactionUserID(ic)
		if data.Name == "" || userID == "" {
			return
		}
		partial := ""
		for _, opt := range data.Options {
			if opt != nil && opt.Focused {
				partial = opt.StringValue()
				break
			}
		}
		handler(discordpkg.AutocompleteEvent{
			GuildID:     ic.GuildID,
			CommandName: data.Name,
			UserID:      userID,
			Partial:     partial,
			Respond: func(choices []discordpkg.AutocompleteChoice) error {
				payload := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(choices))
				for _, choice := range choices {
					payload = append(payload, &discordgo.ApplicationCommandOptionChoice{
						Name:  choice.Name,
						Value: choice.Value,
					})
				}
				return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
					Type: discordgo.InteractionApplicationCommandAutocompleteResult,
					Data: &discordgo.InteractionResponseData{Choices: payload},
				})
			},
		})
	})
}

func interactionUserID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

func (c *Client) UpsertGuildSlashCommands(guildID string, defs []discordpkg.SlashCommandDefinition) error {
	appID := c.applicationID()
	if appID == "" {
		return fmt.Errorf("discord application id is not available")
	}
	existing, err := c.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}
	existingByName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		if cmd == nil || cmd.Name == "" {
			continue
		}
		existingByName[cmd.Name] = cmd
	}
	for _, def := range defs {
		if err := c.upsertGuildSlashCommand(appID, guildID, def, existingByName); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) upsertGuildSlashCommand(appID, guildID string, def discordpkg.SlashCommandDefinition, existingByName map[string]*discordgo.ApplicationCommand) error {
	if def.Name == "" {
		return nil
	}
	options := make([]*discordgo.ApplicationCommandOption, 0, len(def.Options))
	for _, opt := range def.Options {
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         opt.Name,
			Description:  opt.Description,
			Required:     opt.Required,
			Autocomplete: opt.Autocomplete,
		})
	}
	payload := &discordgo.ApplicationCommand{
		Name:        def.Name,
		Description: def.Description,
		Options:     options,
	}
	cmd, ok := existingByName[def.Name]
	if !ok {
		_, err := c.session.ApplicationCommandCreate(appID, guildID, payload)
		return err
	}
	_, err := c.session.ApplicationCommandEdit(appID, guildID, cmd.ID, payload)
	return err
}

func (c *Client) applicationID() string {
	if c.session == nil || c.session.State == nil {
		return ""
	}
	if c.session.State.Application != nil && c.session.State.Application.ID != "" {
		return c.session.State.Application.ID
	}
	if c.session.State.User != nil {
		return c.session.State.User.ID
	}
	return ""
}

func (c *Client) resolveUserIsBot(guildID, userID string, state *discordgo.VoiceState) bool {
	if isBot, ok := botFlagFromVoiceState(state); ok {
		return isBot
	}
	if isBot, ok := c.botFlagFromSessionState(guildID, userID); ok {
		return isBot
	}
	return c.botFlagFromUserAPI(userID)
}

func botFlagFromVoiceState(state *discordgo.VoiceState) (bool, bool) {
	if state != nil && state.Member != nil && state.Member.User != nil {
		return state.Member.User.Bot, true
	}
	return false, false
}

func (c *Client) botFlagFromSessionState(guildID, userID string) (bool, bool) {
	if c.session == nil || c.session.State == nil {
		return false, false
	}
	if c.session.State.User != nil && c.session.State.User.ID == userID {
		return true, true
	}
	member, err := c.session.State.Member(guildID, userID)
	if err == nil && member != nil && member.User != nil {
		return member.User.Bot, true
	}
	return false, false
}

func (c *Client) botFlagFromUserAPI(userID string) bool {
	u, err := c.session.User(userID)
	if err != nil {
		return false
	}
	return u.Bot
}

type voiceConnectionImpl struct {
	vc *discordgo.VoiceConnection
}

func (v *voiceConnectionImpl) ChannelID() string {
	v.vc.RLock()
	defer v.vc.RUnlock()
	return v.vc.ChannelID
}

func (v *voiceConnectionImpl) IsConnected() bool {
	v.vc.RLock()
	defer v.vc.RUnlock()
	return v.vc.Ready
}

func (v *voiceConnectionImpl) Move(channelID string) error {
	return v.vc.ChangeChannel(channelID, false, true)
}

func (v *voiceConnectionImpl) Disconnect() error {
	return v.vc.Disconnect()
}

func (v *voiceConnectionImpl) Speaking(on bool) error {
	return v.vc.Speaking(on)
}

func (v *voiceConnectionImpl) OpusSend() chan<- []byte {
	return v.vc.OpusSend
}
