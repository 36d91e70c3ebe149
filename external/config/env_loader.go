package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/sfxboard/internal/config"
)

type envConfig struct {
	Env                   string `env:"ENV" envDefault:"production"`
	DatabaseURL           string `env:"DATABASE_URL,required"`
	DiscordToken          string `env:"DISCORD_TOKEN,required"`
	SoundDirectory        string `env:"SOUND_DIRECTORY" envDefault:"data/sounds"`
	PlayWebhookURL        string `env:"PLAY_WEBHOOK_URL"`
	ConnectWarmupMillis   int    `env:"VOICE_CONNECT_WARMUP_MS" envDefault:"500"`
	ReaperIntervalSeconds int    `env:"VOICE_REAPER_INTERVAL_SEC" envDefault:"10"`
	ReplyTTLSeconds       int    `env:"REPLY_TTL_SEC" envDefault:"895"`
	CountOtherBots        bool   `env:"COUNT_OTHER_BOTS_AS_LISTENERS" envDefault:"false"`
	MaxSoundEffectSeconds int    `env:"MAX_SOUND_EFFECT_SECONDS" envDefault:"30"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                   raw.Env,
		DatabaseURL:           raw.DatabaseURL,
		DiscordToken:          raw.DiscordToken,
		SoundDirectory:        raw.SoundDirectory,
		PlayWebhookURL:        raw.PlayWebhookURL,
		ConnectWarmup:         time.Duration(raw.ConnectWarmupMillis) * time.Millisecond,
		ReaperInterval:        time.Duration(raw.ReaperIntervalSeconds) * time.Second,
		ReplyTTL:              time.Duration(raw.ReplyTTLSeconds) * time.Second,
		CountOtherBots:        raw.CountOtherBots,
		MaxSoundEffectSeconds: raw.MaxSoundEffectSeconds,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
