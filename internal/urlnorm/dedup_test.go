package urlnorm

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeduplicator_VariantsCollapse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	n := newTestNormalizer(t)
	d := NewDeduplicator(n)
	ctx := t.Context()

	a := srv.URL + "/path/?utm_source=a"
	b := srv.URL + "/path"

	canonicalA := d.Add(ctx, a)
	canonicalB := d.Add(ctx, b)

	require.Equal(t, canonicalA, canonicalB)
	require.True(t, d.IsDuplicate(ctx, a, b))
	require.ElementsMatch(t, []string{a, b}, d.Variants(ctx, a))
}

func TestDeduplicator_UnseenURLCanonicalizedOnTheFly(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	n := newTestNormalizer(t)
	d := NewDeduplicator(n)
	ctx := t.Context()

	// Never added, still resolvable.
	require.Equal(t, srv.URL+"/fresh", d.Canonical(ctx, srv.URL+"/fresh/#top"))
	require.Empty(t, d.Variants(ctx, srv.URL+"/fresh"))
}

func TestDeduplicator_DistinctURLsNotDuplicates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	d := NewDeduplicator(newTestNormalizer(t))
	ctx := t.Context()

	d.Add(ctx, srv.URL+"/one")
	d.Add(ctx, srv.URL+"/two")

	require.False(t, d.IsDuplicate(ctx, srv.URL+"/one", srv.URL+"/two"))
}
