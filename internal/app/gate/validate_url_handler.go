package gate

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/pkg/render"
	"tokenhunter-event-gate/internal/router"
	"tokenhunter-event-gate/internal/validate"
)

type ValidateURLHandler struct {
	urls   *validate.URLValidator
	logger *zap.SugaredLogger
}

type NewValidateURLHandlerParams struct {
	fx.In

	URLs   *validate.URLValidator
	Logger *zap.SugaredLogger
}

func NewValidateURLHandler(p NewValidateURLHandlerParams) *ValidateURLHandler {
	return &ValidateURLHandler{urls: p.URLs, logger: p.Logger}
}

func (h *ValidateURLHandler) RegisterRoute(r *chi.Mux) {
	r.Post("/v1/urls/validate", h.Handle)
}

type validateURLRequest struct {
	URL string `json:"url"`
}

func (h *ValidateURLHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req validateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing url")
		return
	}

	render.ChiJSON(w, http.StatusOK, h.urls.ValidateURL(r.Context(), req.URL))
}

var _ router.Handler = (*ValidateURLHandler)(nil)
