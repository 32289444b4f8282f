package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Verdict is the structured outcome of a URL validation. Every failure
// mode is folded into Valid=false plus a human-readable Reason; the
// gate never surfaces validation failures as errors to its callers.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Config controls the validator's verdict cache and outbound HTTP
// behavior.
type Config struct {
	CacheTTL  time.Duration
	Timeout   time.Duration
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:  time.Hour,
		Timeout:   10 * time.Second,
		UserAgent: "Mozilla/5.0 (compatible; TokenHunterGate/1.0)",
	}
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type cacheEntry struct {
	verdict   Verdict
	checkedAt time.Time
}

// URLValidator verifies that an event URL resolves to live, non-error
// content. Verdicts are cached in memory by the exact URL string with
// a TTL; when a Redis client is supplied, verdicts are shared across
// processes through it as well.
type URLValidator struct {
	cfg    Config
	client httpDoer
	rdb    *redis.Client
	logger *zap.SugaredLogger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewURLValidator(cfg Config, rdb *redis.Client, logger *zap.SugaredLogger) *URLValidator {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &URLValidator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		rdb:    rdb,
		logger: logger,
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

// Close releases idle connections held by the validator's HTTP client.
func (v *URLValidator) Close() {
	if c, ok := v.client.(*http.Client); ok {
		c.CloseIdleConnections()
	}
}

// ValidateURL checks that a URL exists and does not look like an error
// page. Order: empty input, cached verdict, fake-URL pattern, then a
// live GET (redirects followed by the client) with title inspection.
// All terminal outcomes are cached.
func (v *URLValidator) ValidateURL(ctx context.Context, rawURL string) Verdict {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Verdict{Valid: false, Reason: "Empty URL"}
	}

	if verdict, ok := v.cached(ctx, rawURL); ok {
		return verdict
	}

	if isFakeURL(rawURL) {
		return v.store(ctx, rawURL, Verdict{Valid: false, Reason: "Matches fake URL pattern"})
	}

	return v.store(ctx, rawURL, v.fetch(ctx, rawURL))
}

func (v *URLValidator) fetch(ctx context.Context, rawURL string) Verdict {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Verdict{Valid: false, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", v.cfg.UserAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Verdict{Valid: false, Reason: "Request timeout"}
		}
		return Verdict{Valid: false, Reason: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Verdict{Valid: false, Reason: "HTTP 404 Not Found"}
	case resp.StatusCode >= 400:
		return Verdict{Valid: false, Reason: fmt.Sprintf("HTTP %d Error", resp.StatusCode)}
	}

	// Success status: the title is advisory. An unreadable or
	// title-less body leaves the status code authoritative.
	title := extractTitle(resp.Body)
	if isFakeTitle(title) {
		return Verdict{Valid: false, Title: title, Reason: "Title indicates error page"}
	}

	return Verdict{Valid: true, Title: title}
}

func (v *URLValidator) cached(ctx context.Context, rawURL string) (Verdict, bool) {
	now := v.now()

	v.mu.Lock()
	entry, ok := v.cache[rawURL]
	v.mu.Unlock()
	if ok && now.Sub(entry.checkedAt) < v.cfg.CacheTTL {
		return entry.verdict, true
	}

	if v.rdb == nil {
		return Verdict{}, false
	}

	raw, err := v.rdb.Get(ctx, redisKey(rawURL)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			v.logger.Warnw("verdict_cache_get_failed", "url", rawURL, "err", err)
		}
		return Verdict{}, false
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		v.logger.Warnw("verdict_cache_decode_failed", "url", rawURL, "err", err)
		return Verdict{}, false
	}

	v.mu.Lock()
	v.cache[rawURL] = cacheEntry{verdict: verdict, checkedAt: now}
	v.mu.Unlock()

	return verdict, true
}

func (v *URLValidator) store(ctx context.Context, rawURL string, verdict Verdict) Verdict {
	v.mu.Lock()
	v.cache[rawURL] = cacheEntry{verdict: verdict, checkedAt: v.now()}
	v.mu.Unlock()

	if v.rdb != nil {
		payload, err := json.Marshal(verdict)
		if err == nil {
			if err := v.rdb.Set(ctx, redisKey(rawURL), payload, v.cfg.CacheTTL).Err(); err != nil {
				v.logger.Warnw("verdict_cache_set_failed", "url", rawURL, "err", err)
			}
		}
	}

	return verdict
}

func redisKey(rawURL string) string {
	return "gate:verdict:" + rawURL
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
