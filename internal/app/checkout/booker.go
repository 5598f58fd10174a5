package checkout

import (
	"context"

	"github.com/rs/zerolog"

	"gatherlocal/internal/app/event"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
)

// Joiner registers the user for a free event.
type Joiner interface {
	JoinEvent(ctx context.Context, id event.ID) error
}

// Starter runs a paid checkout.
type Starter interface {
	Start(ctx context.Context, amount float64, eventTitle string) (Outcome, error)
}

// Booking is the result of a join action.
type Booking struct {
	EventID  event.ID `json:"eventId"`
	Free     bool     `json:"free"`
	Joined   bool     `json:"joined"`
	Checkout *Session `json:"checkout,omitempty"`
}

// Booker is the join action of an event card: free events are joined directly,
// priced events go through checkout.
type Booker struct {
	joiner  Joiner
	starter Starter
	logger  zerolog.Logger
}

// NewBooker returns a Booker.
func NewBooker(joiner Joiner, starter Starter) *Booker {
	return &Booker{joiner: joiner, starter: starter, logger: logx.Component("booking")}
}

// Book joins e. For a priced event the returned error is the checkout's failure, if any.
func (b *Booker) Book(ctx context.Context, e event.Event) (Booking, error) {
	if e.ID == "" {
		return Booking{}, errs.NewError(errs.ErrInvalidParams)
	}

	if e.Free() {
		if err := b.joiner.JoinEvent(ctx, e.ID); err != nil {
			b.logger.Warn().Err(err).Str("event_id", string(e.ID)).Msg("Join failed.")
			return Booking{}, errs.Recode(errs.ErrJoinFailed, err)
		}
		b.logger.Info().Str("event_id", string(e.ID)).Msg("Joined free event.")
		return Booking{EventID: e.ID, Free: true, Joined: true}, nil
	}

	outcome, err := b.starter.Start(ctx, e.Price, e.Title)
	if err != nil {
		return Booking{}, err
	}

	session := outcome.Session
	booking := Booking{EventID: e.ID, Joined: outcome.Settled(), Checkout: &session}
	if outcome.Err != nil {
		return booking, outcome.Err
	}
	return booking, nil
}
