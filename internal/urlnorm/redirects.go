package urlnorm

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// httpDoer is the slice of http.Client the redirect walker needs;
// tests substitute it to avoid live requests.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// newManualRedirectClient builds a client that never follows redirects
// on its own: the chain is walked manually so loops can be detected
// and each hop normalized.
func newManualRedirectClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// FollowRedirects resolves a URL through its redirect chain and
// returns the final destination plus every hop visited. Results are
// cached by the original input URL; cache hits return the final URL
// with an empty chain. The walk stops on the first non-redirect
// response, a missing Location header, a revisited URL, a
// self-redirect, an exhausted hop budget, or any request error; in
// every case the last successfully resolved URL is kept as final.
func (n *Normalizer) FollowRedirects(ctx context.Context, rawURL string) (string, []string) {
	n.mu.Lock()
	if final, ok := n.finalURLs[rawURL]; ok {
		n.mu.Unlock()
		return final, nil
	}
	n.mu.Unlock()

	current := n.Normalize(rawURL)
	visited := map[string]struct{}{current: {}}
	chain := []string{current}

	for hop := 0; hop < n.cfg.MaxRedirects; hop++ {
		next, ok := n.redirectTarget(ctx, current)
		if !ok {
			break
		}
		if _, seen := visited[next]; seen || next == current {
			n.logger.Debugw("redirect_loop_detected", "url", rawURL, "at", current)
			break
		}
		visited[next] = struct{}{}
		current = next
		chain = append(chain, next)
	}

	n.mu.Lock()
	n.finalURLs[rawURL] = current
	n.mu.Unlock()

	return current, chain
}

// CanonicalURL returns only the final destination of the redirect chain.
func (n *Normalizer) CanonicalURL(ctx context.Context, rawURL string) string {
	final, _ := n.FollowRedirects(ctx, rawURL)
	return final
}

// Equivalent reports whether two URLs resolve to the same canonical
// destination.
func (n *Normalizer) Equivalent(ctx context.Context, a, b string) bool {
	return n.CanonicalURL(ctx, a) == n.CanonicalURL(ctx, b)
}

// redirectTarget issues one HEAD request and, for a 3xx response with
// a Location header, returns the normalized absolute target.
func (n *Normalizer) redirectTarget(ctx context.Context, current string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, current, nil)
	if err != nil {
		n.logger.Debugw("redirect_request_build_failed", "url", current, "err", err)
		return "", false
	}
	req.Header.Set("User-Agent", n.cfg.UserAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		// Network failures stop the walk; the last resolved URL stands.
		n.logger.Debugw("redirect_request_failed", "url", current, "err", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", false
	}

	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", false
	}

	base, err := url.Parse(current)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(loc)
	if err != nil {
		n.logger.Debugw("redirect_location_parse_failed", "url", current, "location", loc, "err", err)
		return "", false
	}

	return n.Normalize(base.ResolveReference(ref).String()), true
}
