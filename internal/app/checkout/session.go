package checkout

import (
	"context"
	"sync"
)

// Status is the step a checkout session is in.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusScriptLoading Status = "script-loading"
	StatusOrdering      Status = "ordering"
	StatusAwaitingUser  Status = "awaiting-user"
	StatusSettled       Status = "settled"
	StatusFailed        Status = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusFailed
}

// Reason explains a failed session.
type Reason string

const (
	ReasonSDKUnavailable      Reason = "sdk-unavailable"
	ReasonOrderCreationFailed Reason = "order-creation-failed"
	ReasonPaymentFailed       Reason = "payment-failed"
	ReasonDismissed           Reason = "dismissed"
)

// Session is one checkout invocation. It is published to observers on every transition.
type Session struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	EventTitle  string  `json:"eventTitle"`
	OrderID     string  `json:"orderId,omitempty"`
	ExternalKey string  `json:"externalKey,omitempty"`
	Status      Status  `json:"status"`
	Reason      Reason  `json:"reason,omitempty"`
	PaymentRef  string  `json:"paymentRef,omitempty"`
}

// ResultKind is how the payment widget finished.
type ResultKind string

const (
	ResultPaid      ResultKind = "paid"
	ResultFailed    ResultKind = "failed"
	ResultDismissed ResultKind = "dismissed"
)

// Result is what the payment widget reports back.
type Result struct {
	Kind      ResultKind `json:"kind"`
	PaymentID string     `json:"paymentId,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Completion is the widget's answer, resolved at most once. Later resolutions are
// ignored so a widget calling back twice cannot change the outcome.
type Completion struct {
	once   sync.Once
	done   chan struct{}
	result Result
}

// NewCompletion returns an unresolved Completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Resolve records r. It reports whether this call was the one that resolved.
func (c *Completion) Resolve(r Result) bool {
	resolved := false
	c.once.Do(func() {
		c.result = r
		resolved = true
		close(c.done)
	})
	return resolved
}

// Done is closed once the completion is resolved.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the completion resolves or ctx ends. A cancelled wait counts
// as a dismissed widget.
func (c *Completion) Wait(ctx context.Context) Result {
	select {
	case <-c.done:
		return c.result
	case <-ctx.Done():
		c.Resolve(Result{Kind: ResultDismissed, Message: ctx.Err().Error()})
		return c.result
	}
}
