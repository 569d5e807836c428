package rbac

import (
	"github.com/statboard/statboard/internal/rbac/repository"
	"github.com/statboard/statboard/internal/rbac/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rbac.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
