package eventworker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/app/events"
	"tokenhunter-event-gate/internal/app/verdicts"
)

type eventWriterFunc func(ctx context.Context, in events.InsertValidatedInput) (string, error)

func (f eventWriterFunc) InsertValidated(ctx context.Context, in events.InsertValidatedInput) (string, error) {
	return f(ctx, in)
}

type verdictRecorder struct {
	recorded []verdicts.RecordInput
}

func (r *verdictRecorder) Record(ctx context.Context, in verdicts.RecordInput) (string, error) {
	_ = ctx
	r.recorded = append(r.recorded, in)
	return "verdict-1", nil
}

func newEnvelope(url, name string) ScrapedEventEnvelope {
	return ScrapedEventEnvelope{
		EventName: ScrapedEventName,
		EventID:   "evt-1",
		TS:        time.Now().UTC(),
		Data:      ScrapedEventData{URL: url, Name: name},
	}
}

func TestGateHandler_AcceptedEventIsPersistedAndAudited(t *testing.T) {
	t.Parallel()

	var gotCreatedBy string
	rec := &verdictRecorder{}
	h := &GateHandler{
		store: eventWriterFunc(func(ctx context.Context, in events.InsertValidatedInput) (string, error) {
			gotCreatedBy = in.CreatedBy
			return "stored-1", nil
		}),
		verdicts: rec,
		logger:   zap.NewNop().Sugar(),
	}

	err := h.Handle(t.Context(), newEnvelope("https://lu.ma/ethcc-side-summit", "EthCC Side Summit"))
	require.NoError(t, err)
	require.Equal(t, "rabbitmq", gotCreatedBy)

	require.Len(t, rec.recorded, 1)
	require.True(t, rec.recorded[0].Verdict.Valid)
	require.Equal(t, "https://lu.ma/ethcc-side-summit", rec.recorded[0].URL)
	require.Equal(t, "luma", rec.recorded[0].Source)
	require.Equal(t, "evt-1", rec.recorded[0].RequestID)
}

func TestGateHandler_RejectedEventIsAckedNotRetried(t *testing.T) {
	t.Parallel()

	rec := &verdictRecorder{}
	h := &GateHandler{
		store: eventWriterFunc(func(ctx context.Context, in events.InsertValidatedInput) (string, error) {
			return "", fmt.Errorf("%w: Matches fake URL pattern", events.ErrValidationFailed)
		}),
		verdicts: rec,
		logger:   zap.NewNop().Sugar(),
	}

	err := h.Handle(t.Context(), newEnvelope("https://lu.ma/fake-event-123", "Fake Thing"))
	require.NoError(t, err)

	require.Len(t, rec.recorded, 1)
	require.False(t, rec.recorded[0].Verdict.Valid)
	require.Contains(t, rec.recorded[0].Verdict.Reason, "Matches fake URL pattern")
}

func TestGateHandler_InfraFailureIsReturned(t *testing.T) {
	t.Parallel()

	h := &GateHandler{
		store: eventWriterFunc(func(ctx context.Context, in events.InsertValidatedInput) (string, error) {
			return "", fmt.Errorf("upsert event: connection refused")
		}),
		verdicts: &verdictRecorder{},
		logger:   zap.NewNop().Sugar(),
	}

	err := h.Handle(t.Context(), newEnvelope("https://lu.ma/real-event", "Real Event"))
	require.Error(t, err)
}

func TestGateHandler_RejectsMalformedEnvelopes(t *testing.T) {
	t.Parallel()

	h := &GateHandler{
		store: eventWriterFunc(func(ctx context.Context, in events.InsertValidatedInput) (string, error) {
			t.Fatal("store must not be called")
			return "", nil
		}),
		logger: zap.NewNop().Sugar(),
	}

	missingID := newEnvelope("https://lu.ma/x", "X")
	missingID.EventID = ""
	require.Error(t, h.Handle(t.Context(), missingID))

	wrongName := newEnvelope("https://lu.ma/x", "X")
	wrongName.EventName = "gate/other.event"
	require.Error(t, h.Handle(t.Context(), wrongName))

	empty := newEnvelope("", "")
	require.Error(t, h.Handle(t.Context(), empty))
}
