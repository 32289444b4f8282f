package revalidate

import (
	"context"
	"strings"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/app/events"
	"tokenhunter-event-gate/internal/app/verdicts"
	"tokenhunter-event-gate/internal/validate"
)

const RevalidateRequestedEventName = "gate/events.revalidate.requested"

const defaultBatchLimit = 100

type RevalidateRequestedEventData struct {
	Limit int `json:"limit,omitempty"`
}

// RevalidateFunction re-checks stored events against the live pages
// they point at. Listings go dead after conferences end; this keeps
// the events database from serving 404s.
type RevalidateFunction struct {
	store    *events.Store
	urls     *validate.URLValidator
	verdicts *verdicts.Store
	logger   *zap.SugaredLogger
}

type staleEvent struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

type recheckResult struct {
	Checked int          `json:"checked"`
	Stale   []staleEvent `json:"stale"`
}

type NewRevalidateFunctionParams struct {
	fx.In

	Store    *events.Store
	URLs     *validate.URLValidator
	Verdicts *verdicts.Store
	Logger   *zap.SugaredLogger
}

func NewRevalidateFunction(p NewRevalidateFunctionParams) *RevalidateFunction {
	return &RevalidateFunction{
		store:    p.Store,
		urls:     p.URLs,
		verdicts: p.Verdicts,
		logger:   p.Logger,
	}
}

func (f *RevalidateFunction) Handle(ctx context.Context, input inngestgo.Input[RevalidateRequestedEventData]) (any, error) {
	limit := input.Event.Data.Limit
	if limit <= 0 {
		limit = defaultBatchLimit
	}

	rows, err := step.Run(ctx, "load-active-events", func(ctx context.Context) ([]events.Row, error) {
		f.logger.Infow("🏃🏻 inngest_step",
			"step", "load-active-events",
			"limit", limit,
		)
		return f.store.ListActive(ctx, limit)
	})
	if err != nil {
		return nil, inngestgo.NoRetryError(err)
	}

	rechecked, err := step.Run(ctx, "recheck-urls", func(ctx context.Context) (recheckResult, error) {
		f.logger.Infow("🏃🏻 inngest_step",
			"step", "recheck-urls",
			"count", len(rows),
		)

		out := recheckResult{Checked: len(rows)}
		for _, row := range rows {
			v := f.urls.ValidateURL(ctx, row.CanonicalURL)
			if v.Valid {
				continue
			}
			// Transient timeouts are not evidence the listing is gone.
			if strings.Contains(v.Reason, "timeout") || strings.Contains(v.Reason, "Timeout") {
				continue
			}
			out.Stale = append(out.Stale, staleEvent{
				ID:     row.ID,
				URL:    row.CanonicalURL,
				Reason: v.Reason,
			})
		}

		f.logger.Infow("✅ done recheck-urls",
			"checked", out.Checked,
			"stale", len(out.Stale),
		)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	marked, err := step.Run(ctx, "mark-stale-events", func(ctx context.Context) (int, error) {
		marked := 0
		for _, s := range rechecked.Stale {
			if err := f.store.MarkInvalid(ctx, s.ID, s.Reason); err != nil {
				f.logger.Errorw("revalidate_mark_invalid_failed",
					"id", s.ID,
					"url", s.URL,
					"err", err,
				)
				continue
			}
			marked++

			if f.verdicts != nil {
				if _, err := f.verdicts.Record(ctx, verdicts.RecordInput{
					URL:     s.URL,
					Verdict: validate.Verdict{Valid: false, Reason: s.Reason},
					Source:  "revalidate",
				}); err != nil {
					f.logger.Warnw("revalidate_record_verdict_failed",
						"url", s.URL,
						"err", err,
					)
				}
			}
		}
		return marked, nil
	})
	if err != nil {
		return nil, inngestgo.NoRetryError(err)
	}

	f.logger.Infow("inngest_revalidate_finished",
		"checked", rechecked.Checked,
		"stale", len(rechecked.Stale),
		"marked", marked,
	)

	return map[string]any{
		"checked": rechecked.Checked,
		"stale":   len(rechecked.Stale),
		"marked":  marked,
	}, nil
}
