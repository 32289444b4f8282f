package gate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tokenhunter-event-gate/internal/ratelimit"
	"tokenhunter-event-gate/internal/urlnorm"
	"tokenhunter-event-gate/internal/validate"
)

func newURLValidatorForTest(t *testing.T) *validate.URLValidator {
	t.Helper()
	v := validate.NewURLValidator(validate.DefaultConfig(), nil, zap.NewNop().Sugar())
	t.Cleanup(v.Close)
	return v
}

func TestValidateURLHandler_BadJSON(t *testing.T) {
	t.Parallel()

	h := &ValidateURLHandler{urls: newURLValidatorForTest(t), logger: zap.NewNop().Sugar()}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/urls/validate", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestValidateURLHandler_MissingURL(t *testing.T) {
	t.Parallel()

	h := &ValidateURLHandler{urls: newURLValidatorForTest(t), logger: zap.NewNop().Sugar()}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/urls/validate", strings.NewReader(`{"url":"  "}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"error":"missing url"`)
}

func TestValidateURLHandler_FakePattern(t *testing.T) {
	t.Parallel()

	h := &ValidateURLHandler{urls: newURLValidatorForTest(t), logger: zap.NewNop().Sugar()}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/urls/validate",
		strings.NewReader(`{"url":"https://lu.ma/fake-event-123"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var verdict validate.Verdict
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &verdict))
	require.False(t, verdict.Valid)
	require.Equal(t, "Matches fake URL pattern", verdict.Reason)
}

func TestValidateURLHandler_LiveFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Devcon Satellite</title></head><body></body></html>`))
	}))
	t.Cleanup(srv.Close)

	h := &ValidateURLHandler{urls: newURLValidatorForTest(t), logger: zap.NewNop().Sugar()}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/urls/validate",
		strings.NewReader(`{"url":"`+srv.URL+`/devcon-satellite"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var verdict validate.Verdict
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &verdict))
	require.True(t, verdict.Valid)
	require.Equal(t, "Devcon Satellite", verdict.Title)
}

func TestCanonicalHandler_MissingURL(t *testing.T) {
	t.Parallel()

	h := &CanonicalHandler{
		norm:   urlnorm.NewNormalizer(urlnorm.DefaultConfig(), zap.NewNop().Sugar()),
		logger: zap.NewNop().Sugar(),
	}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	req := httptest.NewRequest(http.MethodGet, "/v1/urls/canonical", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCanonicalHandler_FollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := &CanonicalHandler{
		norm:   urlnorm.NewNormalizer(urlnorm.DefaultConfig(), zap.NewNop().Sugar()),
		logger: zap.NewNop().Sugar(),
	}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	req := httptest.NewRequest(http.MethodGet, "/v1/urls/canonical?url="+url.QueryEscape(srv.URL+"/a"), nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		CanonicalURL  string   `json:"canonical_url"`
		RedirectChain []string `json:"redirect_chain"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, srv.URL+"/final", got.CanonicalURL)
	require.NotEmpty(t, got.RedirectChain)
}

func TestLimitsHandler_UpdateResetsWindow(t *testing.T) {
	t.Parallel()

	limits := ratelimit.NewManager(1, time.Hour)
	h := &LimitsHandler{limits: limits, logger: zap.NewNop().Sugar()}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	// Exhaust the default limit.
	require.True(t, limits.Allow("scraper-1"))
	require.False(t, limits.Allow("scraper-1"))

	req := httptest.NewRequest(http.MethodPut, "/v1/limits/scraper-1",
		strings.NewReader(`{"max_calls":5,"period_seconds":60}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)

	// Fresh window after the update.
	require.True(t, limits.Allow("scraper-1"))

	getReq := httptest.NewRequest(http.MethodGet, "/v1/limits/scraper-1", nil)
	getRR := httptest.NewRecorder()
	r.ServeHTTP(getRR, getReq)

	require.Equal(t, http.StatusOK, getRR.Code)

	var status struct {
		Identity          string  `json:"identity"`
		RemainingCalls    int     `json:"remaining_calls"`
		RetryAfterSeconds float64 `json:"retry_after_seconds"`
	}
	require.NoError(t, json.Unmarshal(getRR.Body.Bytes(), &status))
	require.Equal(t, "scraper-1", status.Identity)
	require.Equal(t, 4, status.RemainingCalls)
	require.Zero(t, status.RetryAfterSeconds)
}

func TestLimitsHandler_RejectsBadInput(t *testing.T) {
	t.Parallel()

	h := &LimitsHandler{limits: ratelimit.NewManager(10, time.Hour), logger: zap.NewNop().Sugar()}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	req := httptest.NewRequest(http.MethodPut, "/v1/limits/scraper-1",
		strings.NewReader(`{"max_calls":0,"period_seconds":60}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestValidateEventHandler_FullChain(t *testing.T) {
	t.Parallel()

	urls := newURLValidatorForTest(t)
	events := validate.NewEventValidator(urls, zap.NewNop().Sugar())

	h := &ValidateEventHandler{events: events, logger: zap.NewNop().Sugar()}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	// Fake URL pattern short-circuits without network.
	req := httptest.NewRequest(http.MethodPost, "/v1/events/validate",
		strings.NewReader(`{"event":{"url":"https://lu.ma/test/event","name":"Some Event"}}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Valid  bool     `json:"valid"`
		Issues []string `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.False(t, got.Valid)
	require.NotEmpty(t, got.Issues)
}

func TestValidateEventHandler_TrustedBypass(t *testing.T) {
	t.Parallel()

	urls := newURLValidatorForTest(t)
	events := validate.NewEventValidator(urls, zap.NewNop().Sugar())

	h := &ValidateEventHandler{events: events, logger: zap.NewNop().Sugar()}
	r := chi.NewRouter()
	h.RegisterRoute(r)

	// A calendar-extracted event passes on the name check alone, even
	// though the URL is unreachable.
	body := `{"allow_trusted":true,"event":{"url":"https://lu.ma/ethcc-party","name":"EthCC Party","extraction_source":"https://lu.ma/ethcc"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/events/validate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"valid":true`)
}
