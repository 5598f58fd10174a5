/*
Package location acquires the device position once and exposes the result as a
three-way state: still pending, available with coordinates, or unavailable with a reason.
*/
package location

import "fmt"

// Coordinates is a device position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// State is the probe result. The concrete type is one of Pending, Available or Unavailable.
type State interface {
	isState()

	// Name is the wire label of the state ("pending", "available", "unavailable").
	Name() string
}

// Pending means the position has not been resolved yet.
type Pending struct{}

// Available carries the resolved position.
type Available struct {
	Coords Coordinates
}

// Unavailable carries why no position could be obtained.
// Code 0 means the device has no geolocation capability at all.
type Unavailable struct {
	Code    int
	Message string
}

func (Pending) isState()     {}
func (Available) isState()   {}
func (Unavailable) isState() {}

func (Pending) Name() string     { return "pending" }
func (Available) Name() string   { return "available" }
func (Unavailable) Name() string { return "unavailable" }

func (u Unavailable) Error() string {
	return fmt.Sprintf("location unavailable (code %d): %s", u.Code, u.Message)
}

// Coords returns the coordinates of an Available state.
func Coords(s State) (Coordinates, bool) {
	a, ok := s.(Available)
	return a.Coords, ok
}

// View is the JSON shape of a State for the UI stream.
type View struct {
	Status  string       `json:"status"`
	Coords  *Coordinates `json:"coords,omitempty"`
	Code    int          `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ViewOf renders s for the UI.
func ViewOf(s State) View {
	switch st := s.(type) {
	case Available:
		c := st.Coords
		return View{Status: st.Name(), Coords: &c}
	case Unavailable:
		return View{Status: st.Name(), Code: st.Code, Message: st.Message}
	default:
		return View{Status: Pending{}.Name()}
	}
}
