package major

import (
	"github.com/statboard/statboard/internal/major/repository"
	"github.com/statboard/statboard/internal/major/service"
	"go.uber.org/fx"
)

var Module = fx.Module("major.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
