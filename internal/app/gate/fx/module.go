package fx

import (
	"go.uber.org/fx"

	"tokenhunter-event-gate/internal/app/gate"
	"tokenhunter-event-gate/internal/router"
)

var Module = fx.Options(
	fx.Provide(
		gate.NewNormalizer,
		gate.NewDeduplicator,
		gate.NewURLValidator,
		gate.NewEventValidator,
		gate.NewRateLimitManager,
		fx.Annotate(
			gate.NewRateLimitMiddleware,
			fx.ResultTags(`name:"ratelimit"`),
		),
	),
	fx.Provide(
		router.AsRoute(gate.NewValidateEventHandler),
		router.AsRoute(gate.NewValidateURLHandler),
		router.AsRoute(gate.NewCanonicalHandler),
		router.AsRoute(gate.NewLimitsHandler),
	),
)
