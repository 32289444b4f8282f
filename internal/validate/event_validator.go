package validate

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Event is the candidate record handed to the gate by upstream
// scrapers. Loosely typed on purpose: extraction metadata varies by
// scraper generation.
type Event struct {
	URL              string         `json:"url,omitempty"`
	LumaURL          string         `json:"luma_url,omitempty"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	ExtractionSource string         `json:"extraction_source,omitempty"`
	ExtractionMethod string         `json:"extraction_method,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// EventURL returns the record's backing URL, preferring the
// platform-specific luma_url field.
func (e Event) EventURL() string {
	if u := strings.TrimSpace(e.LumaURL); u != "" {
		return u
	}
	return strings.TrimSpace(e.URL)
}

// Calendar sources whose extractions are trusted enough to skip live
// HTTP validation during bulk ingests.
var trustedCalendarSources = map[string]struct{}{
	"https://lu.ma/ethcc":     {},
	"https://lu.ma/token2049": {},
	"https://lu.ma/devcon":    {},
	"https://lu.ma/crypto":    {},
}

// Extraction markers that identify calendar-derived records.
var calendarMarkers = []string{
	"Event from calendar",
	"extracted via enhanced_fallback",
	"extracted via ai_enhanced_fallback",
}

// EventValidator applies the business rules for accepting a scraped
// event record.
type EventValidator struct {
	urls   *URLValidator
	logger *zap.SugaredLogger
}

func NewEventValidator(urls *URLValidator, logger *zap.SugaredLogger) *EventValidator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EventValidator{urls: urls, logger: logger}
}

// ValidateEvent runs the full rule chain over a record. Fatal findings
// (missing URL, dead link, fake title or name) short-circuit; the
// remaining checks accumulate issues. A record is valid iff no issues
// were collected.
func (ev *EventValidator) ValidateEvent(ctx context.Context, e Event) (bool, []string) {
	eventURL := e.EventURL()
	if eventURL == "" {
		return false, []string{"Missing event URL"}
	}

	var issues []string

	name := strings.TrimSpace(e.Name)
	if name == "" {
		issues = append(issues, "Missing event name")
	}

	verdict := ev.urls.ValidateURL(ctx, eventURL)
	if !verdict.Valid {
		return false, append(issues, verdict.Reason)
	}

	// A redirect can land on a generic error page that still returns
	// HTTP 200; the extracted title catches that case.
	if verdict.Title != "" && isFakeTitle(verdict.Title) {
		return false, append(issues, "Page title indicates error page: "+verdict.Title)
	}

	if isFakeTitle(name) {
		return false, append(issues, "Event name matches fake pattern: "+name)
	}

	if name != "" && len(name) < 3 {
		issues = append(issues, "Event name too short")
	}
	if u, err := url.Parse(eventURL); err != nil || u.Host == "" {
		issues = append(issues, "Event URL has no host")
	}

	return len(issues) == 0, issues
}

// ValidateSingle validates one record, skipping live HTTP validation
// for calendar-trusted extractions. Bypassed records get only a name
// sanity check.
func (ev *EventValidator) ValidateSingle(ctx context.Context, e Event) bool {
	if calendarTrusted(e) {
		ok := nameSane(e.Name)
		if !ok {
			ev.logger.Debugw("calendar_event_rejected_by_name", "name", e.Name)
		}
		return ok
	}

	valid, issues := ev.ValidateEvent(ctx, e)
	if !valid {
		ev.logger.Debugw("event_rejected", "url", e.EventURL(), "issues", issues)
	}
	return valid
}

// ValidateBulk validates a batch of records, releasing the validator's
// HTTP connections when the batch is done.
func (ev *EventValidator) ValidateBulk(ctx context.Context, events []Event) []bool {
	defer ev.urls.Close()

	out := make([]bool, len(events))
	for i, e := range events {
		out[i] = ev.ValidateSingle(ctx, e)
	}
	return out
}

// ValidateURLQuick answers only "is this URL alive," with the same
// scoped connection release as ValidateBulk.
func (ev *EventValidator) ValidateURLQuick(ctx context.Context, rawURL string) bool {
	defer ev.urls.Close()
	return ev.urls.ValidateURL(ctx, rawURL).Valid
}

func calendarTrusted(e Event) bool {
	if _, ok := trustedCalendarSources[strings.TrimSpace(e.ExtractionSource)]; ok {
		return true
	}
	if src, _ := e.Metadata["extraction_source"].(string); src != "" {
		if _, ok := trustedCalendarSources[strings.TrimSpace(src)]; ok {
			return true
		}
	}
	if flag, _ := e.Metadata["calendar_extraction"].(bool); flag {
		return true
	}

	method := e.ExtractionMethod
	if method == "" {
		method, _ = e.Metadata["extraction_method"].(string)
	}
	for _, marker := range calendarMarkers {
		if strings.Contains(e.Description, marker) || strings.Contains(method, marker) {
			return true
		}
	}
	return false
}

func nameSane(name string) bool {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 3 {
		return false
	}
	return !isFakeTitle(trimmed)
}
