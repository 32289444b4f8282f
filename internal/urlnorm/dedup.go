package urlnorm

import (
	"context"
	"sort"
	"sync"
)

// Deduplicator tracks equivalence classes of URL variants keyed by
// canonical form. The maps grow with every distinct URL seen and are
// never pruned; the structure is sized for the lifetime of a batch
// ingest, not a long-lived service.
type Deduplicator struct {
	norm *Normalizer

	mu        sync.Mutex
	variants  map[string]map[string]struct{}
	canonical map[string]string
}

func NewDeduplicator(norm *Normalizer) *Deduplicator {
	return &Deduplicator{
		norm:      norm,
		variants:  make(map[string]map[string]struct{}),
		canonical: make(map[string]string),
	}
}

// Add records a URL under its canonical form and returns that form.
func (d *Deduplicator) Add(ctx context.Context, rawURL string) string {
	canonical := d.norm.CanonicalURL(ctx, rawURL)

	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.variants[canonical]
	if !ok {
		set = make(map[string]struct{})
		d.variants[canonical] = set
	}
	set[rawURL] = struct{}{}
	d.canonical[rawURL] = canonical

	return canonical
}

// Canonical returns the canonical form for a URL, computing it on the
// fly for URLs never passed to Add.
func (d *Deduplicator) Canonical(ctx context.Context, rawURL string) string {
	d.mu.Lock()
	if canonical, ok := d.canonical[rawURL]; ok {
		d.mu.Unlock()
		return canonical
	}
	d.mu.Unlock()

	return d.norm.CanonicalURL(ctx, rawURL)
}

// Variants returns every recorded variant sharing the URL's canonical
// form, sorted for stable output.
func (d *Deduplicator) Variants(ctx context.Context, rawURL string) []string {
	canonical := d.Canonical(ctx, rawURL)

	d.mu.Lock()
	defer d.mu.Unlock()

	set := d.variants[canonical]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Canonicals returns every canonical form recorded so far, sorted.
func (d *Deduplicator) Canonicals() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, len(d.variants))
	for c := range d.variants {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// IsDuplicate reports whether two URLs share a canonical form.
func (d *Deduplicator) IsDuplicate(ctx context.Context, a, b string) bool {
	return d.Canonical(ctx, a) == d.Canonical(ctx, b)
}
