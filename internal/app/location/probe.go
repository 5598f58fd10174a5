package location

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"gatherlocal/internal/pkg/logx"
)

const (
	// CodeUnsupported is reported when no geolocation capability exists.
	CodeUnsupported = 0

	// CodePermissionDenied mirrors the platform code for a refused permission.
	CodePermissionDenied = 1

	// CodePositionUnavailable mirrors the platform code for a failed lookup.
	CodePositionUnavailable = 2

	// CodeTimeout mirrors the platform code for a lookup that ran out of time.
	CodeTimeout = 3
)

// Geolocator is the device capability that yields the current position.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
}

// PositionError is the failure a Geolocator reports. Other errors are treated as
// CodePositionUnavailable.
type PositionError struct {
	Code    int
	Message string
}

func (e *PositionError) Error() string {
	return e.Message
}

// Probe performs one position request and holds the terminal result.
type Probe struct {
	locator Geolocator

	once sync.Once
	done chan struct{}

	mu        sync.RWMutex
	state     State
	observers []func(State)

	logger zerolog.Logger
}

// NewProbe returns a pending probe. A nil locator means the capability is unsupported.
func NewProbe(locator Geolocator) *Probe {
	return &Probe{
		locator: locator,
		done:    make(chan struct{}),
		state:   Pending{},
		logger:  logx.Component("location"),
	}
}

// Start activates the probe. Only the first call has an effect; the request runs
// in the background and Start returns immediately.
func (p *Probe) Start(ctx context.Context) {
	p.once.Do(func() {
		if p.locator == nil {
			p.resolve(Unavailable{Code: CodeUnsupported, Message: "Geolocation not supported"})
			return
		}

		go func() {
			coords, err := p.locator.CurrentPosition(ctx)
			if err != nil {
				p.resolve(unavailableFrom(err))
				return
			}
			p.resolve(Available{Coords: coords})
		}()
	})
}

func unavailableFrom(err error) Unavailable {
	var posErr *PositionError
	if errors.As(err, &posErr) {
		return Unavailable{Code: posErr.Code, Message: posErr.Message}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable{Code: CodeTimeout, Message: err.Error()}
	}
	return Unavailable{Code: CodePositionUnavailable, Message: err.Error()}
}

// resolve records the terminal state and notifies observers once.
func (p *Probe) resolve(s State) {
	p.mu.Lock()
	if _, pending := p.state.(Pending); !pending {
		p.mu.Unlock()
		return
	}
	p.state = s
	observers := append([]func(State){}, p.observers...)
	p.mu.Unlock()

	switch st := s.(type) {
	case Available:
		p.logger.Info().Float64("lat", st.Coords.Lat).Float64("lng", st.Coords.Lng).Msg("Location resolved.")
	case Unavailable:
		p.logger.Info().Int("code", st.Code).Str("reason", st.Message).Msg("Location unavailable.")
	}

	close(p.done)

	for _, fn := range observers {
		fn(s)
	}
}

// State returns the current state.
func (p *Probe) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Done is closed once the probe reaches a terminal state.
func (p *Probe) Done() <-chan struct{} {
	return p.done
}

// Subscribe registers fn for the terminal transition. It returns a function that
// removes the subscription. If the probe already resolved, fn is not called.
func (p *Probe) Subscribe(fn func(State)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.observers = append(p.observers, fn)
	idx := len(p.observers) - 1

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if idx < len(p.observers) {
			p.observers[idx] = func(State) {}
		}
	}
}
