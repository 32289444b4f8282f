package fx

import (
	"go.uber.org/fx"

	"tokenhunter-event-gate/internal/app/events"
)

var Module = fx.Options(
	fx.Provide(events.NewStore),
)
