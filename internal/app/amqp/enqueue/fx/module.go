package fx

import (
	"go.uber.org/fx"

	"tokenhunter-event-gate/internal/app/amqp/enqueue"
	"tokenhunter-event-gate/internal/pkg/amqpclient"
	"tokenhunter-event-gate/internal/router"
)

var Module = fx.Options(
	fx.Provide(
		amqpclient.NewAMQP,
		router.AsRoute(enqueue.NewHandler),
	),
)
