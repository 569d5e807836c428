package evaluationtype

import (
	"github.com/statboard/statboard/internal/evaluationtype/repository"
	"github.com/statboard/statboard/internal/evaluationtype/service"
	"go.uber.org/fx"
)

var Module = fx.Module("evaluationtype.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
