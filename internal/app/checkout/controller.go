/*
Package checkout drives one payment transaction from a button press to its outcome.

A session moves idle, script-loading, ordering, awaiting-user and ends settled or
failed. The provider SDK is loaded at most once per Controller; the order is signed
by the backend; the widget's answer arrives through a Completion that resolves once.
Nothing is retried: a new attempt is a new invocation.
*/
package checkout

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"gatherlocal/internal/app/api"
	"gatherlocal/internal/app/notice"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
	"gatherlocal/internal/pkg/randx"
)

// OrderCreator asks the backend for a signed payment order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amount float64) (api.Order, error)
}

// WidgetOptions pre-fill the provider's payment widget.
type WidgetOptions struct {
	CheckoutID  string `json:"checkoutId"`
	Key         string `json:"key"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ThemeColor  string `json:"themeColor"`
}

// Widget opens the provider's payment widget and hands back its pending answer.
type Widget interface {
	Open(ctx context.Context, opts WidgetOptions) (*Completion, error)
}

// Options carry the merchant display metadata.
type Options struct {
	MerchantName string
	ThemeColor   string
}

// Outcome is the terminal state of one invocation. Err is set when it failed.
type Outcome struct {
	Session Session
	Err     *errs.CustomError
}

// Settled reports whether the payment went through.
func (o Outcome) Settled() bool {
	return o.Session.Status == StatusSettled
}

// Controller runs checkout sessions.
type Controller struct {
	loader  SDKLoader
	orders  OrderCreator
	widget  Widget
	opts    Options
	notices notice.Sink

	loadMu sync.Mutex
	loaded bool

	obsMu     sync.Mutex
	observers []func(Session)

	logger zerolog.Logger
}

// NewController returns a Controller. notices may be nil.
func NewController(loader SDKLoader, orders OrderCreator, widget Widget, opts Options, notices notice.Sink) *Controller {
	if opts.MerchantName == "" {
		opts.MerchantName = "GatherLocal"
	}
	if opts.ThemeColor == "" {
		opts.ThemeColor = "#6366F1"
	}
	if notices == nil {
		notices = notice.Discard
	}
	return &Controller{
		loader:  loader,
		orders:  orders,
		widget:  widget,
		opts:    opts,
		notices: notices,
		logger:  logx.Component("checkout"),
	}
}

// Subscribe registers fn to be called on every session transition.
func (c *Controller) Subscribe(fn func(Session)) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Controller) publish(s Session) {
	c.obsMu.Lock()
	observers := append([]func(Session){}, c.observers...)
	c.obsMu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

// transition moves s to status and publishes it.
func (c *Controller) transition(s *Session, status Status) {
	s.Status = status
	c.logger.Debug().Str("checkout_id", s.ID).Str("status", string(status)).Msg("Checkout transition.")
	c.publish(*s)
}

// fail ends s with reason and returns its outcome.
func (c *Controller) fail(s *Session, reason Reason, err *errs.CustomError) Outcome {
	s.Reason = reason
	c.transition(s, StatusFailed)
	c.logger.Warn().Err(err).Str("checkout_id", s.ID).Str("reason", string(reason)).Msg("Checkout failed.")
	if reason != ReasonDismissed {
		c.notices.Publish(notice.Error(err.Message))
	}
	return Outcome{Session: *s, Err: err}
}

// ensureSDK loads the provider SDK unless an earlier invocation already did.
// A failed load is not cached, so a later invocation tries again.
func (c *Controller) ensureSDK(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	if c.loaded {
		return nil
	}
	if c.loader == nil {
		return fmt.Errorf("no payment sdk loader")
	}
	if err := c.loader.Load(ctx); err != nil {
		return err
	}
	c.loaded = true
	return nil
}

// Start runs one checkout for amount. A non-positive amount is rejected with a
// validation error before any transition.
func (c *Controller) Start(ctx context.Context, amount float64, eventTitle string) (Outcome, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Outcome{}, errs.NewError(errs.ErrInvalidAmount)
	}

	s := &Session{ID: randx.CheckoutID(), Amount: amount, EventTitle: eventTitle}
	c.transition(s, StatusIdle)

	c.transition(s, StatusScriptLoading)
	if err := c.ensureSDK(ctx); err != nil {
		return c.fail(s, ReasonSDKUnavailable, errs.Wrap(errs.ErrPaymentSDKUnavailable, err)), nil
	}

	c.transition(s, StatusOrdering)
	order, err := c.orders.CreateOrder(ctx, amount)
	if err != nil {
		return c.fail(s, ReasonOrderCreationFailed, errs.Recode(errs.ErrOrderCreationFailed, err)), nil
	}
	s.OrderID, s.ExternalKey = order.OrderID, order.Key

	c.transition(s, StatusAwaitingUser)
	completion, err := c.widget.Open(ctx, WidgetOptions{
		CheckoutID:  s.ID,
		Key:         order.Key,
		Amount:      int64(math.Round(order.Amount * 100)),
		Currency:    order.Currency,
		OrderID:     order.OrderID,
		Name:        c.opts.MerchantName,
		Description: "Ticket for " + eventTitle,
		ThemeColor:  c.opts.ThemeColor,
	})
	if err == nil && completion == nil {
		err = fmt.Errorf("widget returned no completion")
	}
	if err != nil {
		return c.fail(s, ReasonPaymentFailed, errs.Wrap(errs.ErrPaymentFailed, err)), nil
	}

	result := completion.Wait(ctx)
	switch {
	case result.Kind == ResultPaid && result.PaymentID != "":
		s.PaymentRef = result.PaymentID
		c.transition(s, StatusSettled)
		c.logger.Info().Str("checkout_id", s.ID).Str("order_id", s.OrderID).Str("payment_ref", s.PaymentRef).Msg("Payment settled.")
		c.notices.Publish(notice.Success("Payment Successful! Ref: " + s.PaymentRef))
		return Outcome{Session: *s}, nil
	case result.Kind == ResultDismissed:
		return c.fail(s, ReasonDismissed, errs.NewError(errs.ErrPaymentDismissed)), nil
	default:
		return c.fail(s, ReasonPaymentFailed, errs.NewError(errs.ErrPaymentFailed).FromServer(result.Message)), nil
	}
}
