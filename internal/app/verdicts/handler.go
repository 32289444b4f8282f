package verdicts

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/pkg/render"
	"tokenhunter-event-gate/internal/router"
)

// HistoryHandler exposes the verdict audit log so the ops console can
// answer "why was this URL rejected" without database access.
type HistoryHandler struct {
	store  *Store
	logger *zap.SugaredLogger
}

type NewHistoryHandlerParams struct {
	fx.In

	Store  *Store
	Logger *zap.SugaredLogger
}

func NewHistoryHandler(p NewHistoryHandlerParams) *HistoryHandler {
	return &HistoryHandler{
		store:  p.Store,
		logger: p.Logger,
	}
}

func (h *HistoryHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/v1/verdicts", h.Handle)
}

type verdictItem struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Valid       bool    `json:"valid"`
	Title       *string `json:"title"`
	Reason      *string `json:"reason"`
	Source      *string `json:"source"`
	RequestID   *string `json:"request_id"`
	CheckedAtMs int64   `json:"checked_at_ms"`
}

type historyResponse struct {
	URL      string        `json:"url"`
	Verdicts []verdictItem `json:"verdicts"`
}

func (h *HistoryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing url")
		return
	}

	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			render.ChiErr(w, http.StatusBadRequest, "limit must be 1..500")
			return
		}
		limit = n
	}

	rows, err := h.store.Recent(r.Context(), rawURL, limit)
	if err != nil {
		h.logger.Errorw("verdict_history_fetch_failed", "url", rawURL, "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to fetch verdicts")
		return
	}

	resp := historyResponse{URL: rawURL, Verdicts: make([]verdictItem, 0, len(rows))}
	for _, row := range rows {
		resp.Verdicts = append(resp.Verdicts, verdictItem{
			ID:          row.ID,
			URL:         row.URL,
			Valid:       row.Valid,
			Title:       nullableStringPtr(row.Title),
			Reason:      nullableStringPtr(row.Reason),
			Source:      nullableStringPtr(row.Source),
			RequestID:   nullableStringPtr(row.RequestID),
			CheckedAtMs: row.CheckedAtMs,
		})
	}

	render.ChiJSON(w, http.StatusOK, resp)
}

func nullableStringPtr(v sql.NullString) *string {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	return &v.String
}

var _ router.Handler = (*HistoryHandler)(nil)
