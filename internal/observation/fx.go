package observation

import (
	"github.com/statboard/statboard/internal/observation/repository"
	"github.com/statboard/statboard/internal/observation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("observation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
