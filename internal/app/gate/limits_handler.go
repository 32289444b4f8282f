package gate

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/pkg/render"
	"tokenhunter-event-gate/internal/ratelimit"
	"tokenhunter-event-gate/internal/router"
)

type LimitsHandler struct {
	limits *ratelimit.Manager
	logger *zap.SugaredLogger
}

type NewLimitsHandlerParams struct {
	fx.In

	Limits *ratelimit.Manager
	Logger *zap.SugaredLogger
}

func NewLimitsHandler(p NewLimitsHandlerParams) *LimitsHandler {
	return &LimitsHandler{limits: p.Limits, logger: p.Logger}
}

func (h *LimitsHandler) RegisterRoute(r *chi.Mux) {
	r.Put("/v1/limits/{identity}", h.Handle)
	r.Get("/v1/limits/{identity}", h.HandleGet)
}

type updateLimitRequest struct {
	MaxCalls      int `json:"max_calls"`
	PeriodSeconds int `json:"period_seconds"`
}

// Handle replaces the identity's limiter with a fresh one. The window
// history is discarded, so an exhausted identity is immediately
// allowed again.
func (h *LimitsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity := strings.TrimSpace(chi.URLParam(r, "identity"))
	if identity == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing identity")
		return
	}

	var req updateLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.MaxCalls <= 0 || req.PeriodSeconds <= 0 {
		render.ChiErr(w, http.StatusBadRequest, "max_calls and period_seconds must be positive")
		return
	}

	h.limits.UpdateLimit(identity, req.MaxCalls, time.Duration(req.PeriodSeconds)*time.Second)
	h.logger.Infow("rate_limit_updated",
		"identity", identity,
		"max_calls", req.MaxCalls,
		"period_seconds", req.PeriodSeconds,
	)

	w.WriteHeader(http.StatusNoContent)
}

type limitStatusResponse struct {
	Identity          string  `json:"identity"`
	RemainingCalls    int     `json:"remaining_calls"`
	RetryAfterSeconds float64 `json:"retry_after_seconds"`
}

func (h *LimitsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity := strings.TrimSpace(chi.URLParam(r, "identity"))
	if identity == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing identity")
		return
	}

	render.ChiJSON(w, http.StatusOK, limitStatusResponse{
		Identity:          identity,
		RemainingCalls:    h.limits.Remaining(identity),
		RetryAfterSeconds: h.limits.RetryAfter(identity).Seconds(),
	})
}

var _ router.Handler = (*LimitsHandler)(nil)
