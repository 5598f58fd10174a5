package hub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies a message on the state stream.
type MessageType string

const (
	// TypeInitData is sent once to a newly attached UI with the current state.
	TypeInitData MessageType = "init"

	// TypeSession carries a session.Snapshot after sign-in or sign-out.
	TypeSession MessageType = "session"

	// TypeLocation carries a location.View when the probe resolves.
	TypeLocation MessageType = "location"

	// TypeFeed carries a feed.Snapshot after every feed change.
	TypeFeed MessageType = "feed"

	// TypeNotice carries a transient notice.Notice.
	TypeNotice MessageType = "notice"

	// TypeCheckout carries a checkout.Session on every checkout transition.
	TypeCheckout MessageType = "checkout"

	// TypeCheckoutOpen asks the UI to open the payment widget with checkout.WidgetOptions.
	TypeCheckoutOpen MessageType = "checkout.open"

	// TypeCheckoutResult is sent by the UI with the payment widget's answer.
	TypeCheckoutResult MessageType = "checkout.result"

	// TypeError reports a rejected inbound message to its sender.
	TypeError MessageType = "error"
)

// Message is the envelope of everything pushed to attached UIs.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewMessage builds a Message with a fresh id and the current time in milliseconds.
func NewMessage(msgType MessageType, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}

	return Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Payload:   raw,
	}, nil
}

// ErrorPayload is the payload of a TypeError message.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CheckoutResultPayload is the payload of a TypeCheckoutResult message.
type CheckoutResultPayload struct {
	CheckoutID string `json:"checkoutId"`
	Kind       string `json:"kind"`
	PaymentID  string `json:"paymentId,omitempty"`
	Message    string `json:"message,omitempty"`
}
