package district

import (
	"github.com/statboard/statboard/internal/district/repository"
	"github.com/statboard/statboard/internal/district/service"
	"go.uber.org/fx"
)

var Module = fx.Module("district.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
