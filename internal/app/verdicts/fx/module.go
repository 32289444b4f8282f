package fx

import (
	"go.uber.org/fx"

	"tokenhunter-event-gate/internal/app/verdicts"
	"tokenhunter-event-gate/internal/router"
)

var Module = fx.Options(
	fx.Provide(
		verdicts.NewStore,
		router.AsRoute(verdicts.NewHistoryHandler),
	),
)
