package validate

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingDoer wraps a client and counts outbound requests.
type countingDoer struct {
	inner httpDoer
	calls int
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	if d.inner == nil {
		panic("unexpected HTTP request in test")
	}
	return d.inner.Do(req)
}

func newTestValidator(t *testing.T, inner httpDoer) (*URLValidator, *countingDoer) {
	t.Helper()

	v := NewURLValidator(DefaultConfig(), nil, zap.NewNop().Sugar())
	doer := &countingDoer{inner: inner}
	v.client = doer
	return v, doer
}

func TestValidateURL_Empty(t *testing.T) {
	t.Parallel()

	v, doer := newTestValidator(t, nil)

	verdict := v.ValidateURL(t.Context(), "   ")
	require.False(t, verdict.Valid)
	require.Equal(t, "Empty URL", verdict.Reason)
	require.Zero(t, doer.calls)
}

func TestValidateURL_FakePatternSkipsNetwork(t *testing.T) {
	t.Parallel()

	v, doer := newTestValidator(t, nil)

	for _, u := range []string{
		"https://lu.ma/ethcc-fake-event",
		"https://lu.ma/side-event-12345",
		"https://example.com/test/listing",
		"https://example.com/w/events/123",
	} {
		verdict := v.ValidateURL(t.Context(), u)
		require.False(t, verdict.Valid, "url %q", u)
		require.Equal(t, "Matches fake URL pattern", verdict.Reason)
	}
	require.Zero(t, doer.calls)
}

func TestValidateURL_OKWithTitle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>EthCC Demo Day</title></head><body></body></html>"))
	}))
	t.Cleanup(srv.Close)

	v, _ := newTestValidator(t, srv.Client())

	verdict := v.ValidateURL(t.Context(), srv.URL+"/event")
	require.True(t, verdict.Valid)
	require.Equal(t, "EthCC Demo Day", verdict.Title)
	require.Empty(t, verdict.Reason)
}

func TestValidateURL_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	v, _ := newTestValidator(t, srv.Client())

	verdict := v.ValidateURL(t.Context(), srv.URL+"/missing")
	require.False(t, verdict.Valid)
	require.Equal(t, "HTTP 404 Not Found", verdict.Reason)
}

func TestValidateURL_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	v, _ := newTestValidator(t, srv.Client())

	verdict := v.ValidateURL(t.Context(), srv.URL+"/broken")
	require.False(t, verdict.Valid)
	require.Equal(t, "HTTP 502 Error", verdict.Reason)
}

func TestValidateURL_FakeTitleOn200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>Page Not Found · Luma</title></head></html>"))
	}))
	t.Cleanup(srv.Close)

	v, _ := newTestValidator(t, srv.Client())

	verdict := v.ValidateURL(t.Context(), srv.URL+"/soft404")
	require.False(t, verdict.Valid)
	require.Equal(t, "Title indicates error page", verdict.Reason)
	require.Equal(t, "Page Not Found · Luma", verdict.Title)
}

func TestValidateURL_TitleEntitiesUnescaped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>DeFi &amp; NFTs &lt;Paris&gt;</title></head></html>"))
	}))
	t.Cleanup(srv.Close)

	v, _ := newTestValidator(t, srv.Client())

	verdict := v.ValidateURL(t.Context(), srv.URL+"/entities")
	require.True(t, verdict.Valid)
	require.Equal(t, "DeFi & NFTs <Paris>", verdict.Title)
}

func TestValidateURL_TitlelessBodyStillValid(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 128)))
	}))
	t.Cleanup(srv.Close)

	v, _ := newTestValidator(t, srv.Client())

	verdict := v.ValidateURL(t.Context(), srv.URL+"/plain")
	require.True(t, verdict.Valid)
	require.Empty(t, verdict.Title)
}

func TestValidateURL_VerdictCached(t *testing.T) {
	t.Parallel()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("<html><head><title>Cached Event</title></head></html>"))
	}))
	t.Cleanup(srv.Close)

	v, _ := newTestValidator(t, srv.Client())

	first := v.ValidateURL(t.Context(), srv.URL+"/page")
	second := v.ValidateURL(t.Context(), srv.URL+"/page")
	require.Equal(t, first, second)
	require.Equal(t, 1, hits)
}

func TestValidateURL_CacheExpires(t *testing.T) {
	t.Parallel()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	v, _ := newTestValidator(t, srv.Client())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return base }

	v.ValidateURL(t.Context(), srv.URL+"/page")
	require.Equal(t, 1, hits)

	// Past TTL the entry is stale and revalidated.
	v.now = func() time.Time { return base.Add(v.cfg.CacheTTL + time.Second) }
	v.ValidateURL(t.Context(), srv.URL+"/page")
	require.Equal(t, 2, hits)
}

func TestValidateURL_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := srv.Client()
	srv.Close()

	v, _ := newTestValidator(t, client)

	verdict := v.ValidateURL(t.Context(), srv.URL+"/gone")
	require.False(t, verdict.Valid)
	require.NotEmpty(t, verdict.Reason)
}
