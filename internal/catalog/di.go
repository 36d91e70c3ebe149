package catalog

import (
	"github.com/foxseedlab/sfxboard/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Catalog, error) {
		repo := do.MustInvoke[repository.Repository](i)
		return New(repo), nil
	})
}
