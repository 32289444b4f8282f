package fx

import (
	"go.uber.org/fx"

	"tokenhunter-event-gate/internal/app/health"
	"tokenhunter-event-gate/internal/router"
)

var Module = fx.Options(
	fx.Provide(router.AsRoute(health.NewHandler)),
)
