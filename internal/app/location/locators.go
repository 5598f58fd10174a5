package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Fixed reports a configured position, for desktops without a positioning service.
type Fixed Coordinates

// CurrentPosition implements Geolocator.
func (f Fixed) CurrentPosition(ctx context.Context) (Coordinates, error) {
	return Coordinates(f), nil
}

// Denied always fails as a refused permission. It lets a user opt out of location
// while keeping the probe's unavailable path.
type Denied struct{}

// CurrentPosition implements Geolocator.
func (Denied) CurrentPosition(ctx context.Context) (Coordinates, error) {
	return Coordinates{}, &PositionError{Code: CodePermissionDenied, Message: "User denied Geolocation"}
}

// IPLocator looks the position up from an IP geolocation endpoint answering JSON
// with lat and lon (or latitude and longitude) fields.
type IPLocator struct {
	URL    string
	Client *http.Client
}

// CurrentPosition implements Geolocator.
func (l IPLocator) CurrentPosition(ctx context.Context) (Coordinates, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return Coordinates{}, &PositionError{Code: CodePositionUnavailable, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("ip geolocation lookup: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Coordinates{}, &PositionError{
			Code:    CodePositionUnavailable,
			Message: fmt.Sprintf("ip geolocation lookup answered %d", res.StatusCode),
		}
	}

	var body struct {
		Lat       *float64 `json:"lat"`
		Lon       *float64 `json:"lon"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Coordinates{}, &PositionError{Code: CodePositionUnavailable, Message: "malformed ip geolocation response"}
	}

	lat, lng := body.Lat, body.Lon
	if lat == nil || lng == nil {
		lat, lng = body.Latitude, body.Longitude
	}
	if lat == nil || lng == nil {
		return Coordinates{}, &PositionError{Code: CodePositionUnavailable, Message: "ip geolocation response has no coordinates"}
	}

	return Coordinates{Lat: *lat, Lng: *lng}, nil
}
