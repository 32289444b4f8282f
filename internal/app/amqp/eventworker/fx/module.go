package fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/app/amqp/eventworker"
	"tokenhunter-event-gate/internal/pkg/amqpclient"
)

var Module = fx.Module(
	"amqp-eventworker",
	fx.Provide(
		amqpclient.NewAMQP,
		fx.Annotate(
			eventworker.NewGateHandler,
			fx.As(new(eventworker.Handler)),
		),
		eventworker.NewConsumer,
	),
	fx.Invoke(registerLifecycleHooks),
)

type hooksParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Consumer  *eventworker.Consumer
	Logger    *zap.SugaredLogger
}

func registerLifecycleHooks(p hooksParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Infow("eventworker_starting")
			return p.Consumer.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Infow("eventworker_stopping")
			return p.Consumer.Stop(ctx)
		},
	})
}
