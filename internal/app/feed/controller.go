/*
Package feed owns the list of events shown to the user.

The Controller decides between a location-scoped and an unscoped query from the
current probe state, replaces the held list wholesale on every successful fetch,
and re-fetches when the probe resolves. It also keeps the signed-in user's own
events so that a delete can drop the item from both lists without a refetch.
*/
package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"gatherlocal/internal/app/api"
	"gatherlocal/internal/app/event"
	"gatherlocal/internal/app/location"
	"gatherlocal/internal/app/notice"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
)

// DefaultRadiusKm is the search radius of a scoped query.
const DefaultRadiusKm = 10

// Source is the part of the backend the feed reads from.
type Source interface {
	ListEvents(ctx context.Context, scope *api.Scope) ([]event.Event, error)
	MyEvents(ctx context.Context) ([]event.Event, error)
}

// Positioner yields the current probe state.
type Positioner interface {
	State() location.State
}

// Watchable is a Positioner that reports its terminal transition.
type Watchable interface {
	Positioner
	Subscribe(fn func(location.State)) (unsubscribe func())
}

// Snapshot is a read-only view of the feed.
type Snapshot struct {
	Events  []event.Event `json:"events"`
	Loading bool          `json:"loading"`
	Scoped  bool          `json:"scoped"`
}

// Controller holds the feed and the user's own events.
type Controller struct {
	source   Source
	position Positioner
	radiusKm int
	notices  notice.Sink

	mu       sync.Mutex
	events   []event.Event
	mine     []event.Event
	inflight int
	scoped   bool
	closed   bool
	unwatch  func()

	obsMu     sync.Mutex
	observers []func(Snapshot)

	logger zerolog.Logger
}

// NewController returns an empty feed. position may be nil, in which case every
// query is unscoped until Watch provides a probe.
func NewController(source Source, position Positioner, radiusKm int, notices notice.Sink) *Controller {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	if notices == nil {
		notices = notice.Discard
	}
	return &Controller{
		source:   source,
		position: position,
		radiusKm: radiusKm,
		notices:  notices,
		events:   []event.Event{},
		mine:     []event.Event{},
		logger:   logx.Component("feed"),
	}
}

// Subscribe registers fn to be called after every change of the feed.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Controller) notify() {
	snap := c.Snapshot()

	c.obsMu.Lock()
	observers := append([]func(Snapshot){}, c.observers...)
	c.obsMu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

// scope returns the query scope for the current probe state, nil when unscoped.
func (c *Controller) scope() *api.Scope {
	c.mu.Lock()
	position := c.position
	c.mu.Unlock()

	if position == nil {
		return nil
	}
	coords, ok := location.Coords(position.State())
	if !ok {
		return nil
	}
	return &api.Scope{Lat: coords.Lat, Lng: coords.Lng, RadiusKm: c.radiusKm}
}

// Refresh fetches the feed. On failure the held list is left untouched and a
// "Could not load events" notice is published. When refreshes overlap, the one
// that resolves last wins.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.inflight++
	c.mu.Unlock()
	c.notify()

	scope := c.scope()
	events, err := c.source.ListEvents(ctx, scope)

	c.mu.Lock()
	c.inflight--
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug().Msg("Discarding feed result after close.")
		return
	}
	if err == nil {
		if events == nil {
			events = []event.Event{}
		}
		c.events = events
		c.scoped = scope != nil
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn().Err(err).Bool("scoped", scope != nil).Msg("Feed fetch failed.")
		c.notices.Publish(notice.Error(errs.NewError(errs.ErrFeedUnavailable).Message))
	} else {
		c.logger.Debug().Int("count", len(events)).Bool("scoped", scope != nil).Msg("Feed refreshed.")
	}
	c.notify()
}

// Watch makes the controller follow probe: it fetches now and again when the
// probe reaches its terminal state. Any previous watch is dropped.
func (c *Controller) Watch(ctx context.Context, probe Watchable) {
	unwatch := probe.Subscribe(func(location.State) {
		c.Refresh(ctx)
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unwatch()
		return
	}
	previous := c.unwatch
	c.position = probe
	c.unwatch = unwatch
	c.mu.Unlock()

	if previous != nil {
		previous()
	}

	c.Refresh(ctx)
}

// Close stops following the probe. Results of fetches still in flight are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unwatch := c.unwatch
	c.unwatch = nil
	c.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
}

// RefreshMine fetches the events the signed-in user hosts.
func (c *Controller) RefreshMine(ctx context.Context) ([]event.Event, error) {
	events, err := c.source.MyEvents(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Own events fetch failed.")
		if errs.KindOf(err) == errs.KindAuthRejected || errs.KindOf(err) == errs.KindNetworkFailure {
			return nil, errs.From(err)
		}
		return nil, errs.Recode(errs.ErrMyEventsUnavailable, err)
	}
	if events == nil {
		events = []event.Event{}
	}

	c.mu.Lock()
	if !c.closed {
		c.mine = events
	}
	c.mu.Unlock()

	return append([]event.Event(nil), events...), nil
}

// Remove drops every item with the given id from the feed and the own-events list.
func (c *Controller) Remove(id event.ID) {
	c.mu.Lock()
	c.events = without(c.events, id)
	c.mine = without(c.mine, id)
	c.mu.Unlock()

	c.notify()
}

func without(events []event.Event, id event.ID) []event.Event {
	kept := make([]event.Event, 0, len(events))
	for _, e := range events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return kept
}

// Events returns a copy of the feed in server order.
func (c *Controller) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

// Mine returns a copy of the last fetched own-events list.
func (c *Controller) Mine() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.mine...)
}

// Loading reports whether a fetch is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// Snapshot returns the current feed view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Events:  append([]event.Event{}, c.events...),
		Loading: c.inflight > 0,
		Scoped:  c.scoped,
	}
}
