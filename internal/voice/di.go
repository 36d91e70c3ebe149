package voice

import (
	"github.com/foxseedlab/sfxboard/internal/audio"
	"github.com/foxseedlab/sfxboard/internal/config"
	"github.com/foxseedlab/sfxboard/internal/discord"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dc := do.MustInvoke[discord.Client](i)
		streamer := do.MustInvoke[audio.Streamer](i)
		return NewManager(cfg, dc, streamer), nil
	})
}
