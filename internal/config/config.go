package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env                   string
	DatabaseURL           string
	DiscordToken          string
	SoundDirectory        string
	PlayWebhookURL        string
	ConnectWarmup         time.Duration
	ReaperInterval        time.Duration
	ReplyTTL              time.Duration
	CountOtherBots        bool
	MaxSoundEffectSeconds int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.ConnectWarmup < 0 {
		return fmt.Errorf("VOICE_CONNECT_WARMUP_MS must not be negative, got %s", c.ConnectWarmup)
	}
	if c.ReaperInterval <= 0 {
		return fmt.Errorf("VOICE_REAPER_INTERVAL_SEC must be positive, got %s", c.ReaperInterval)
	}
	if c.ReplyTTL <= 0 {
		return fmt.Errorf("REPLY_TTL_SEC must be positive, got %s", c.ReplyTTL)
	}
	if c.MaxSoundEffectSeconds <= 0 {
		return fmt.Errorf("MAX_SOUND_EFFECT_SECONDS must be positive, got %d", c.MaxSoundEffectSeconds)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "SOUND_DIRECTORY", value: c.SoundDirectory},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
