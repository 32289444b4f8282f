package urlnorm

import (
	"context"
	"net/url"
	"strings"
)

// ExtractLumaID pulls the event identifier out of a lu.ma / luma.com
// URL after resolving it to its canonical form. Recognized shapes are
// /event/<id>, /e/<id>, and the bare /<slug> short link. Any other
// shape or host returns ok=false.
func (n *Normalizer) ExtractLumaID(ctx context.Context, rawURL string) (string, bool) {
	canonical := n.CanonicalURL(ctx, rawURL)

	u, err := url.Parse(canonical)
	if err != nil {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "lu.ma" && host != "luma.com" {
		return "", false
	}

	segments := splitPath(u.Path)
	switch {
	case len(segments) == 2 && (segments[0] == "event" || segments[0] == "e"):
		return segments[1], true
	case len(segments) == 1 && segments[0] != "":
		return segments[0], true
	default:
		return "", false
	}
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
