package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	cachefx "tokenhunter-event-gate/cache/fx"
	dbfx "tokenhunter-event-gate/db/fx"
	eventworkerfx "tokenhunter-event-gate/internal/app/amqp/eventworker/fx"
	"tokenhunter-event-gate/internal/app/events"
	appfx "tokenhunter-event-gate/internal/app/fx"
	"tokenhunter-event-gate/internal/app/gate"
	"tokenhunter-event-gate/internal/app/verdicts"
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
		fx.Provide(
			// Validation gate wiring (same as the HTTP server).
			gate.NewNormalizer,
			gate.NewDeduplicator,
			gate.NewURLValidator,
			gate.NewEventValidator,

			// Persistence for gate decisions.
			events.NewStore,
			verdicts.NewStore,
		),
		eventworkerfx.Module,
	)

	app.Run()
}
