/*
Package event defines the community event record exchanged with the backend and the
client-held draft a host fills in before publishing.
*/
package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DefaultCategory is applied to drafts that leave the category empty.
const DefaultCategory = "Social"

// ID identifies an event. The backend may send it as a JSON number or string.
type ID string

// UnmarshalJSON accepts both numeric and string ids.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Event is a published community event.
type Event struct {
	ID           ID      `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	HostName     string  `json:"hostName"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	Date         string  `json:"date"`
	LocationName string  `json:"locationName"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	ImageURL     string  `json:"imageUrl,omitempty"`
}

// UnmarshalJSON also accepts the eventDate spelling some backend versions use.
func (e *Event) UnmarshalJSON(b []byte) error {
	type alias Event
	aux := struct {
		*alias
		EventDate string `json:"eventDate"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if e.Date == "" {
		e.Date = aux.EventDate
	}
	return nil
}

// Free reports whether joining the event needs no payment.
func (e Event) Free() bool {
	return e.Price <= 0
}

// StartsAt parses the event date. Zone-less timestamps are read in loc.
func (e Event) StartsAt(loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", e.Date, loc)
}

// Asset is a local image waiting to be uploaded with a draft. Body is rewound
// before every upload attempt, so a draft can be submitted again after a failure.
type Asset struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// Draft is the not-yet-submitted data of an event being created.
type Draft struct {
	Title        string
	Description  string
	HostName     string
	Category     string
	Price        string
	LocationName string
	Date         string
	Time         string
	ImageURL     string

	// Asset is the pending local image. Nil when the draft has none.
	Asset *Asset
}

// ParsePrice reads the draft price. Blank means free.
func (d Draft) ParsePrice() (float64, error) {
	raw := strings.TrimSpace(d.Price)
	if raw == "" {
		return 0, nil
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %v", price)
	}
	return price, nil
}

// Payload is the body of a create-event request.
type Payload struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	HostName     string  `json:"hostName"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	LocationName string  `json:"locationName"`
	Date         string  `json:"date"`
	ImageURL     string  `json:"imageUrl"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// dateLayouts and timeLayouts are the accepted draft field formats.
var (
	dateLayouts = []string{"2006-01-02"}
	timeLayouts = []string{"15:04", "15:04:05"}
)

// CombineDateTime joins a date field ("2025-05-01") and a time field ("18:30") into one
// instant in loc. Either field failing to parse is an error.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("date and time are both required")
	}
	if loc == nil {
		loc = time.Local
	}

	for _, dl := range dateLayouts {
		for _, tl := range timeLayouts {
			t, err := time.ParseInLocation(dl+"T"+tl, date+"T"+clock, loc)
			if err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("cannot combine date %q and time %q", date, clock)
}

// FormatInstant renders an instant the way the backend expects it in payloads.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
