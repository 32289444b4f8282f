package gate

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/pkg/render"
	"tokenhunter-event-gate/internal/router"
	"tokenhunter-event-gate/internal/validate"
)

type ValidateEventHandler struct {
	events *validate.EventValidator
	logger *zap.SugaredLogger
}

type NewValidateEventHandlerParams struct {
	fx.In

	Events *validate.EventValidator
	Logger *zap.SugaredLogger
}

func NewValidateEventHandler(p NewValidateEventHandlerParams) *ValidateEventHandler {
	return &ValidateEventHandler{events: p.Events, logger: p.Logger}
}

func (h *ValidateEventHandler) RegisterRoute(r *chi.Mux) {
	r.Post("/v1/events/validate", h.Handle)
}

type validateEventRequest struct {
	Event validate.Event `json:"event"`

	// Honor the calendar trust bypass instead of forcing the full
	// HTTP check. Used by bulk calendar ingests.
	AllowTrusted bool `json:"allow_trusted,omitempty"`
}

type validateEventResponse struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

func (h *ValidateEventHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req validateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	if req.AllowTrusted {
		valid := h.events.ValidateSingle(r.Context(), req.Event)
		resp := validateEventResponse{Valid: valid}
		if !valid {
			resp.Issues = []string{"Event rejected by validation gate"}
		}
		render.ChiJSON(w, http.StatusOK, resp)
		return
	}

	valid, issues := h.events.ValidateEvent(r.Context(), req.Event)
	render.ChiJSON(w, http.StatusOK, validateEventResponse{Valid: valid, Issues: issues})
}

var _ router.Handler = (*ValidateEventHandler)(nil)
