package eventworker

import (
	"time"

	"tokenhunter-event-gate/internal/validate"
)

const ScrapedEventName = "gate/event.scraped"

type ScrapedEventData struct {
	URL              string         `json:"url"`
	LumaURL          string         `json:"luma_url,omitempty"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	ExtractionSource string         `json:"extraction_source,omitempty"`
	ExtractionMethod string         `json:"extraction_method,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	ScrapedBy        string         `json:"scraped_by,omitempty"`
}

type ScrapedEventEnvelope struct {
	EventName string           `json:"event_name"`
	EventID   string           `json:"event_id"`
	TS        time.Time        `json:"ts"`
	Data      ScrapedEventData `json:"data"`
}

// Event converts the wire payload into the shape the validation gate
// consumes.
func (d ScrapedEventData) Event() validate.Event {
	return validate.Event{
		URL:              d.URL,
		LumaURL:          d.LumaURL,
		Name:             d.Name,
		Description:      d.Description,
		ExtractionSource: d.ExtractionSource,
		ExtractionMethod: d.ExtractionMethod,
		Metadata:         d.Metadata,
	}
}
