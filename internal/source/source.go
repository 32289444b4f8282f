package source

import (
	"fmt"
	"net/url"
	"strings"
)

type Source string

const (
	Luma       Source = "luma"
	Eventbrite Source = "eventbrite"
	Meetup     Source = "meetup"
)

func Detect(rawURL string) (Source, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL (missing scheme/host): %q", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "lu.ma" || strings.HasSuffix(host, ".lu.ma"):
		return Luma, nil
	case host == "luma.com" || strings.HasSuffix(host, ".luma.com"):
		return Luma, nil
	case host == "eventbrite.com" || strings.HasSuffix(host, ".eventbrite.com"):
		return Eventbrite, nil
	case host == "meetup.com" || strings.HasSuffix(host, ".meetup.com"):
		return Meetup, nil
	default:
		return "", fmt.Errorf("unsupported URL host %q (only Luma/Eventbrite/Meetup are supported)", host)
	}
}
