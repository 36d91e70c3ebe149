package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	audioimpl "github.com/foxseedlab/sfxboard/external/audio"
	configloader "github.com/foxseedlab/sfxboard/external/config"
	"github.com/foxseedlab/sfxboard/external/discord"
	repositoryimpl "github.com/foxseedlab/sfxboard/external/repository"
	webhookimpl "github.com/foxseedlab/sfxboard/external/webhook"
	"github.com/foxseedlab/sfxboard/internal/catalog"
	"github.com/foxseedlab/sfxboard/internal/config"
	discordpkg "github.com/foxseedlab/sfxboard/internal/discord"
	"github.com/foxseedlab/sfxboard/internal/playback"
	"github.com/foxseedlab/sfxboard/internal/voice"
	"github.com/samber/do/v2"
)

const (
	discordConnectTimeout = 20 * time.Second
	catalogLoadTimeout    = 15 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching discord bot")
	runBot(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	catalog.RegisterDI(injector)
	voice.RegisterDI(injector)
	playback.RegisterDI(injector)

	return injector
}

func runBot(injector do.Injector) {
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve discord client", "error", err)
		os.Exit(1)
	}
	cat, err := do.Invoke[*catalog.Catalog](injector)
	if err != nil {
		slog.Error("failed to resolve sound effect catalog", "error", err)
		os.Exit(1)
	}
	manager, err := do.Invoke[*voice.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve voice manager", "error", err)
		os.Exit(1)
	}
	svc, err := do.Invoke[*playback.Service](injector)
	if err != nil {
		slog.Error("failed to resolve playback service", "error", err)
		os.Exit(1)
	}

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), catalogLoadTimeout)
	defer cancelLoad()
	if err := cat.Load(loadCtx); err != nil {
		slog.Error("catalog load failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup: catalog loaded", "sound_effects", len(cat.All()))

	ctx, cancel := context.WithTimeout(context.Background(), discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(ctx); err != nil {
		slog.Error("discord connect failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup: discord connected")

	botUserID, err := dc.GetBotUserID()
	if err != nil {
		slog.Error("failed to resolve bot user id", "error", err)
		os.Exit(1)
	}
	manager.SetBotUserID(botUserID)

	// Empty guild ID registers the commands globally, for every guild the
	// bot is a member of.
	if err := dc.UpsertGuildSlashCommands("", playback.SlashCommandDefinitions()); err != nil {
		slog.Error("failed to upsert slash commands", "error", err)
		os.Exit(1)
	}

	dc.RegisterSlashCommandHandler(svc.HandleSlashCommand)
	dc.RegisterAutocompleteHandler(svc.HandleAutocomplete)
	slog.Info("discord handlers registered", "commands", []string{"x", "sfx-history"})

	manager.StartReaper()
	defer manager.Close()
	defer func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering discord run loop")
		if err := dc.Run(); err != nil {
			slog.Error("discord run failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}
}
