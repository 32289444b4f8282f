package gate

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/pkg/render"
	"tokenhunter-event-gate/internal/router"
	"tokenhunter-event-gate/internal/urlnorm"
)

type CanonicalHandler struct {
	norm   *urlnorm.Normalizer
	logger *zap.SugaredLogger
}

type NewCanonicalHandlerParams struct {
	fx.In

	Norm   *urlnorm.Normalizer
	Logger *zap.SugaredLogger
}

func NewCanonicalHandler(p NewCanonicalHandlerParams) *CanonicalHandler {
	return &CanonicalHandler{norm: p.Norm, logger: p.Logger}
}

func (h *CanonicalHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/v1/urls/canonical", h.Handle)
}

type canonicalResponse struct {
	CanonicalURL  string   `json:"canonical_url"`
	RedirectChain []string `json:"redirect_chain,omitempty"`
	LumaID        string   `json:"luma_id,omitempty"`
}

func (h *CanonicalHandler) Handle(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing url query parameter")
		return
	}

	final, chain := h.norm.FollowRedirects(r.Context(), rawURL)

	resp := canonicalResponse{CanonicalURL: final, RedirectChain: chain}
	if id, ok := h.norm.ExtractLumaID(r.Context(), rawURL); ok {
		resp.LumaID = id
	}

	render.ChiJSON(w, http.StatusOK, resp)
}

var _ router.Handler = (*CanonicalHandler)(nil)
