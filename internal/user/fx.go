package user

import (
	"github.com/statboard/statboard/internal/user/repository"
	"github.com/statboard/statboard/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
