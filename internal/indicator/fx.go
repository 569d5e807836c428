package indicator

import (
	"github.com/statboard/statboard/internal/indicator/repository"
	"github.com/statboard/statboard/internal/indicator/service"
	"go.uber.org/fx"
)

var Module = fx.Module("indicator.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
