package center

import (
	"github.com/statboard/statboard/internal/center/repository"
	"github.com/statboard/statboard/internal/center/service"
	"go.uber.org/fx"
)

var Module = fx.Module("center.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
