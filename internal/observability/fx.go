package observability

import (
	"github.com/statboard/statboard/internal/observability/metrics"
	"go.uber.org/fx"
)

// Module provides HTTP metrics instruments.
var Module = fx.Module("observability",
	fx.Provide(metrics.NewHTTPMetrics),
)
