// Package validate is the fake-event / dead-link gate consulted before
// scraped events are persisted.
package validate

import (
	"regexp"
	"strings"
)

// URL shapes that are rejected without any network I/O: obvious
// test/demo paths, the generic /w/events/ listing path, and the
// known-fake lu.ma side-event slug families that scrapers keep
// hallucinating.
var fakeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/(test|demo|fake|sample|placeholder)(/|$)`),
	regexp.MustCompile(`(?i)/w/events/`),
	regexp.MustCompile(`(?i)lu\.ma/[\w-]*(fake|test|demo)-event[\w-]*$`),
	regexp.MustCompile(`(?i)lu\.ma/side-?event-\d+$`),
}

// Titles and names that indicate an error page rather than a real event.
var fakeTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^page not found`),
	regexp.MustCompile(`(?i)\b404\b`),
	regexp.MustCompile(`(?i)^error\b`),
	regexp.MustCompile(`(?i)\bnot found\b`),
	regexp.MustCompile(`(?i)\baccess denied\b`),
	regexp.MustCompile(`(?i)\bpermission denied\b`),
}

// Luma's 404 page returns HTTP 200 with this exact title.
const lumaNotFoundTitle = "Page Not Found · Luma"

func isFakeURL(rawURL string) bool {
	for _, p := range fakeURLPatterns {
		if p.MatchString(rawURL) {
			return true
		}
	}
	return false
}

func isFakeTitle(title string) bool {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return false
	}
	if trimmed == lumaNotFoundTitle {
		return true
	}
	for _, p := range fakeTitlePatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}
