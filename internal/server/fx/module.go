package fx

import (
	"go.uber.org/fx"

	"tokenhunter-event-gate/internal/server"
)

var ServerOptions = fx.Options(
	fx.Provide(server.NewHTTPServer),
	fx.Invoke(RegisterHTTPServerLifecycle),
)
