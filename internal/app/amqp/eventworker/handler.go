package eventworker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/app/events"
	"tokenhunter-event-gate/internal/app/verdicts"
	"tokenhunter-event-gate/internal/source"
	"tokenhunter-event-gate/internal/validate"
)

type eventWriter interface {
	InsertValidated(ctx context.Context, in events.InsertValidatedInput) (string, error)
}

type verdictWriter interface {
	Record(ctx context.Context, in verdicts.RecordInput) (string, error)
}

// GateHandler runs each scraped event through the validation gate.
// Accepted events land in the events database, every decision lands in
// the verdict audit log. A rejected event is a handled outcome and is
// acked; only infrastructure failures push a delivery to the DLQ.
type GateHandler struct {
	store    eventWriter
	verdicts verdictWriter
	logger   *zap.SugaredLogger
}

type NewGateHandlerParams struct {
	fx.In

	Store    *events.Store
	Verdicts *verdicts.Store
	Logger   *zap.SugaredLogger
}

func NewGateHandler(p NewGateHandlerParams) *GateHandler {
	return &GateHandler{
		store:    p.Store,
		verdicts: p.Verdicts,
		logger:   p.Logger,
	}
}

func (h *GateHandler) Handle(ctx context.Context, msg ScrapedEventEnvelope) error {
	if strings.TrimSpace(msg.EventID) == "" {
		return fmt.Errorf("missing event_id")
	}
	if strings.TrimSpace(msg.EventName) != "" && msg.EventName != ScrapedEventName {
		return fmt.Errorf("unexpected event_name: %s", msg.EventName)
	}

	ev := msg.Data.Event()
	rawURL := ev.EventURL()
	if strings.TrimSpace(rawURL) == "" && strings.TrimSpace(ev.Name) == "" {
		return fmt.Errorf("empty scraped event payload")
	}

	src, err := source.Detect(rawURL)
	if err != nil {
		src = ""
	}

	id, err := h.store.InsertValidated(ctx, events.InsertValidatedInput{
		Event:     ev,
		CreatedBy: "rabbitmq",
	})

	switch {
	case err == nil:
		h.recordVerdict(ctx, msg, rawURL, string(src), validate.Verdict{Valid: true, Title: ev.Name})
		h.logger.Infow("eventworker_event_accepted",
			"event_id", msg.EventID,
			"url", rawURL,
			"stored_id", id,
		)
		return nil

	case errors.Is(err, events.ErrValidationFailed):
		// Redelivery cannot make a fake event real, so the message is acked.
		h.recordVerdict(ctx, msg, rawURL, string(src), validate.Verdict{Valid: false, Reason: err.Error()})
		h.logger.Infow("eventworker_event_rejected",
			"event_id", msg.EventID,
			"url", rawURL,
			"reason", err.Error(),
		)
		return nil

	default:
		h.logger.Errorw("eventworker_persist_failed",
			"event_id", msg.EventID,
			"url", rawURL,
			"err", err,
		)
		return err
	}
}

func (h *GateHandler) recordVerdict(ctx context.Context, msg ScrapedEventEnvelope, rawURL, src string, v validate.Verdict) {
	if h.verdicts == nil || rawURL == "" {
		return
	}
	if _, err := h.verdicts.Record(ctx, verdicts.RecordInput{
		URL:       rawURL,
		Verdict:   v,
		Source:    src,
		RequestID: msg.EventID,
	}); err != nil {
		// The audit log is best effort; losing an entry must not dead-letter the event.
		h.logger.Warnw("eventworker_record_verdict_failed",
			"event_id", msg.EventID,
			"url", rawURL,
			"err", err,
		)
	}
}
