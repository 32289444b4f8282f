package fx

import (
	"github.com/inngest/inngestgo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/config"
	"tokenhunter-event-gate/internal/app/inngest"
	"tokenhunter-event-gate/internal/app/inngest/revalidate"
	pkginngest "tokenhunter-event-gate/internal/pkg/inngest"
	"tokenhunter-event-gate/internal/router"
)

var Module = fx.Options(
	fx.Provide(
		pkginngest.NewInngestClient,
		revalidate.NewRevalidateFunction,
		router.AsRoute(inngest.NewInngestHandler),
	),
	fx.Invoke(registerFunctions),
)

func registerFunctions(
	cfg *config.Config,
	client inngestgo.Client,
	revalidateFunc *revalidate.RevalidateFunction,
	logger *zap.SugaredLogger,
) error {
	if cfg != nil && cfg.Inngest.AppID == "" {
		logger.Infow("inngest_disabled", "reason", "missing INNGEST_APP_ID")
		return nil
	}

	_, err := inngestgo.CreateFunction(
		client,
		inngestgo.FunctionOpts{
			ID:      "revalidate-events",
			Retries: inngestgo.IntPtr(0),
		},
		inngestgo.EventTrigger(revalidate.RevalidateRequestedEventName, nil),
		revalidateFunc.Handle,
	)
	if err != nil {
		logger.Errorw(
			"❌ failed to create inngest revalidate function",
			"err", err.Error(),
		)
		return err
	}

	logger.Infow("inngest_enabled",
		"path", cfg.Inngest.ServePath,
		"event", revalidate.RevalidateRequestedEventName,
	)
	return nil
}
