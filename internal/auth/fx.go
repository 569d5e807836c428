package auth

import (
	"github.com/statboard/statboard/internal/auth/repository"
	"github.com/statboard/statboard/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
