package audio

import (
	audiopkg "github.com/foxseedlab/sfxboard/internal/audio"
	"github.com/foxseedlab/sfxboard/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audiopkg.Streamer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewFFmpegStreamer(c.SoundDirectory, c.MaxSoundEffectSeconds), nil
	})
}
