package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	cachefx "tokenhunter-event-gate/cache/fx"
	dbfx "tokenhunter-event-gate/db/fx"
	enqueuefx "tokenhunter-event-gate/internal/app/amqp/enqueue/fx"
	eventsfx "tokenhunter-event-gate/internal/app/events/fx"
	appfx "tokenhunter-event-gate/internal/app/fx"
	gatefx "tokenhunter-event-gate/internal/app/gate/fx"
	healthfx "tokenhunter-event-gate/internal/app/health/fx"
	inngestfx "tokenhunter-event-gate/internal/app/inngest/fx"
	verdictsfx "tokenhunter-event-gate/internal/app/verdicts/fx"
	routerfx "tokenhunter-event-gate/internal/router/fx"
	serverfx "tokenhunter-event-gate/internal/server/fx"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.CoreAppOptions,
		dbfx.Module,
		dbfx.SQLiteModule,
		cachefx.Module,
		routerfx.CoreRouterOptions,
		serverfx.ServerOptions,
		healthfx.Module,
		gatefx.Module,
		eventsfx.Module,
		verdictsfx.Module,
		inngestfx.Module,
		enqueuefx.Module,
	)

	app.Run()
}
