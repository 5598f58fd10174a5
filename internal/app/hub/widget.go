package hub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"gatherlocal/internal/app/checkout"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
)

// Widget is the payment widget as seen through attached UIs. Open asks the UI to
// show the provider widget; the UI answers through Resolve, either from the bridge
// callback route or a checkout.result message on the stream.
type Widget struct {
	hub *Hub

	mu      sync.Mutex
	pending map[string]*checkout.Completion

	logger zerolog.Logger
}

// NewWidget returns a Widget bound to h and lets h route stream results to it.
func NewWidget(h *Hub) *Widget {
	w := &Widget{
		hub:     h,
		pending: make(map[string]*checkout.Completion),
		logger:  logx.Component("widget"),
	}
	h.setWidget(w)
	return w
}

// Open implements checkout.Widget. It fails when no UI is attached to show the widget.
func (w *Widget) Open(ctx context.Context, opts checkout.WidgetOptions) (*checkout.Completion, error) {
	if w.hub.ClientCount() == 0 {
		return nil, fmt.Errorf("no UI attached to show the payment widget")
	}

	completion := checkout.NewCompletion()

	w.mu.Lock()
	w.pending[opts.CheckoutID] = completion
	w.mu.Unlock()

	go func() {
		select {
		case <-completion.Done():
		case <-ctx.Done():
		}
		w.mu.Lock()
		delete(w.pending, opts.CheckoutID)
		w.mu.Unlock()
	}()

	w.hub.Broadcast(TypeCheckoutOpen, opts)
	w.logger.Info().Str("checkout_id", opts.CheckoutID).Str("order_id", opts.OrderID).Msg("Payment widget requested.")
	return completion, nil
}

// Resolve delivers the widget's answer for checkoutID. Answers for unknown or
// already finished checkouts are rejected with ErrCheckoutNotFound.
func (w *Widget) Resolve(checkoutID string, result checkout.Result) error {
	w.mu.Lock()
	completion, ok := w.pending[checkoutID]
	w.mu.Unlock()

	if !ok || !completion.Resolve(result) {
		w.logger.Warn().Str("checkout_id", checkoutID).Msg("Ignoring result for inactive checkout.")
		return errs.NewError(errs.ErrCheckoutNotFound)
	}

	w.logger.Info().Str("checkout_id", checkoutID).Str("kind", string(result.Kind)).Msg("Payment widget answered.")
	return nil
}

// Pending reports whether checkoutID is waiting for an answer.
func (w *Widget) Pending(checkoutID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[checkoutID]
	return ok
}

// ParseResult validates a widget answer sent by a UI.
func ParseResult(kind, paymentID, message string) (checkout.Result, error) {
	result := checkout.Result{
		Kind:      checkout.ResultKind(strings.ToLower(strings.TrimSpace(kind))),
		PaymentID: strings.TrimSpace(paymentID),
		Message:   strings.TrimSpace(message),
	}

	switch result.Kind {
	case checkout.ResultPaid:
		if result.PaymentID == "" {
			return checkout.Result{}, errs.NewError(errs.ErrInvalidParams)
		}
	case checkout.ResultFailed, checkout.ResultDismissed:
	default:
		return checkout.Result{}, errs.NewError(errs.ErrInvalidParams)
	}
	return result, nil
}
