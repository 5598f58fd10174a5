package handler

import (
	"context"

	"github.com/gorilla/websocket"

	"gatherlocal/internal/app/checkout"
	"gatherlocal/internal/app/event"
	"gatherlocal/internal/app/feed"
	"gatherlocal/internal/app/location"
	"gatherlocal/internal/app/notice"
	"gatherlocal/internal/app/session"
	"gatherlocal/internal/configs"
)

// SessionService is the session as the bridge drives it.
type SessionService interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, fullName, email, password string) error
	Logout()
}

// LocationService exposes the probe's current state.
type LocationService interface {
	State() location.State
}

// FeedService is the event feed as the bridge drives it.
type FeedService interface {
	Snapshot() feed.Snapshot
	Events() []event.Event
	Mine() []event.Event
	Refresh(ctx context.Context)
	RefreshMine(ctx context.Context) ([]event.Event, error)
}

// EventService creates and deletes events.
type EventService interface {
	Create(ctx context.Context, draft event.Draft) (event.Event, error)
	Delete(ctx context.Context, id event.ID) error
}

// BookingService joins free events and pays for priced ones.
type BookingService interface {
	Book(ctx context.Context, e event.Event) (checkout.Booking, error)
}

// CheckoutCallback receives the payment widget's answer.
type CheckoutCallback interface {
	Resolve(checkoutID string, result checkout.Result) error
}

// StateStream serves an upgraded UI connection until it closes.
type StateStream interface {
	Attach(conn *websocket.Conn) error
}

// AppDeps holds everything the bridge routes call into.
type AppDeps struct {
	Config   *configs.AppConfig
	Session  SessionService
	Location LocationService
	Feed     FeedService
	Events   EventService
	Bookings BookingService
	Checkout CheckoutCallback
	Stream   StateStream
	Notices  notice.Sink
}
