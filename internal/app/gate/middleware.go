package gate

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"tokenhunter-event-gate/internal/pkg/render"
	"tokenhunter-event-gate/internal/ratelimit"
)

// NewRateLimitMiddleware gates every API request through the
// per-identity sliding window. Identity is the caller's API key when
// present, else the client IP. Health checks are exempt.
func NewRateLimitMiddleware(limits *ratelimit.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			identity := callerIdentity(r)
			if !limits.Allow(identity) {
				retryAfter := limits.RetryAfter(identity)
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds()+0.999)))
				w.Header().Set("X-RateLimit-Remaining", "0")
				render.ChiErr(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limits.Remaining(identity)))
			next.ServeHTTP(w, r)
		})
	}
}

func callerIdentity(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-Api-Key")); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
