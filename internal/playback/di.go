package playback

import (
	"github.com/foxseedlab/sfxboard/internal/catalog"
	"github.com/foxseedlab/sfxboard/internal/config"
	"github.com/foxseedlab/sfxboard/internal/discord"
	"github.com/foxseedlab/sfxboard/internal/reply"
	"github.com/foxseedlab/sfxboard/internal/repository"
	"github.com/foxseedlab/sfxboard/internal/voice"
	"github.com/foxseedlab/sfxboard/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*reply.Coordinator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dc := do.MustInvoke[discord.Client](i)
		return reply.NewCoordinator(dc, cfg.ReplyTTL), nil
	})
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		cat := do.MustInvoke[*catalog.Catalog](i)
		repo := do.MustInvoke[repository.Repository](i)
		vm := do.MustInvoke[*voice.Manager](i)
		replies := do.MustInvoke[*reply.Coordinator](i)
		wh := do.MustInvoke[webhook.Sender](i)
		return NewService(cfg, cat, repo, vm, replies, wh), nil
	})
}
