package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tokenhunter-event-gate/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_DeniesOverLimit(t *testing.T) {
	t.Parallel()

	limits := ratelimit.NewManager(2, time.Hour)
	h := NewRateLimitMiddleware(limits)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/urls/canonical", nil)
		req.Header.Set("X-Api-Key", "scraper-1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/urls/canonical", nil)
	req.Header.Set("X-Api-Key", "scraper-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, rr.Header().Get("Retry-After"))
	require.Contains(t, rr.Body.String(), "rate limit exceeded")
}

func TestRateLimitMiddleware_IdentitiesAreIndependent(t *testing.T) {
	t.Parallel()

	limits := ratelimit.NewManager(1, time.Hour)
	h := NewRateLimitMiddleware(limits)(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/v1/urls/canonical", nil)
	first.Header.Set("X-Api-Key", "scraper-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, first)
	require.Equal(t, http.StatusOK, rr.Code)

	// Exhausted for scraper-1.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, first)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	// scraper-2 has its own window.
	second := httptest.NewRequest(http.MethodGet, "/v1/urls/canonical", nil)
	second.Header.Set("X-Api-Key", "scraper-2")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, second)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimitMiddleware_FallsBackToClientIP(t *testing.T) {
	t.Parallel()

	limits := ratelimit.NewManager(1, time.Hour)
	h := NewRateLimitMiddleware(limits)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/urls/canonical", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// Same IP on a different source port shares the window.
	req2 := httptest.NewRequest(http.MethodGet, "/v1/urls/canonical", nil)
	req2.RemoteAddr = "10.0.0.7:51235"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req2)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimitMiddleware_HealthIsExempt(t *testing.T) {
	t.Parallel()

	limits := ratelimit.NewManager(1, time.Hour)
	h := NewRateLimitMiddleware(limits)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Api-Key", "scraper-1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimitMiddleware_SetsRemainingHeader(t *testing.T) {
	t.Parallel()

	limits := ratelimit.NewManager(3, time.Hour)
	h := NewRateLimitMiddleware(limits)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/urls/canonical", nil)
	req.Header.Set("X-Api-Key", "scraper-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "2", rr.Header().Get("X-RateLimit-Remaining"))
}
