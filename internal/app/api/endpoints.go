package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"gatherlocal/internal/app/event"
)

// AuthResponse is the auth service's answer to login and register.
type AuthResponse struct {
	Token    string `json:"token"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, request{
		method:             http.MethodPost,
		path:               "/auth/login",
		body:               loginRequest{Email: email, Password: password},
		credentialExchange: true,
	}, &out)
	return out, err
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, fullName, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, request{
		method:             http.MethodPost,
		path:               "/auth/register",
		body:               registerRequest{FullName: fullName, Email: email, Password: password},
		credentialExchange: true,
	}, &out)
	return out, err
}

// Scope narrows an event listing to a radius around a point.
type Scope struct {
	Lat      float64
	Lng      float64
	RadiusKm int
}

func (s Scope) query() url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(s.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(s.Lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(s.RadiusKm))
	return q
}

// ListEvents fetches the open feed; a nil scope lists every event.
func (c *Client) ListEvents(ctx context.Context, scope *Scope) ([]event.Event, error) {
	r := request{method: http.MethodGet, path: "/events"}
	if scope != nil {
		r.query = scope.query()
	}

	var out []event.Event
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateEvent publishes a new event.
func (c *Client) CreateEvent(ctx context.Context, payload event.Payload) (event.Event, error) {
	var out event.Event
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/events",
		body:        payload,
		requireAuth: true,
	}, &out)
	return out, err
}

// MyEvents lists the events the signed-in user hosts.
func (c *Client) MyEvents(ctx context.Context) ([]event.Event, error) {
	var out []event.Event
	err := c.do(ctx, request{
		method:      http.MethodGet,
		path:        "/events/my-events",
		requireAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteEvent removes an event the user hosts.
func (c *Client) DeleteEvent(ctx context.Context, id event.ID) error {
	return c.do(ctx, request{
		method:      http.MethodDelete,
		path:        "/events/" + url.PathEscape(string(id)),
		requireAuth: true,
	}, nil)
}

// JoinEvent registers the user for a free event.
func (c *Client) JoinEvent(ctx context.Context, id event.ID) error {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/events/" + url.PathEscape(string(id)) + "/join",
		requireAuth: true,
	}, nil)
}

// Order is the server-signed payment order descriptor.
type Order struct {
	Key      string  `json:"key"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	OrderID  string  `json:"orderId"`
}

type createOrderRequest struct {
	Amount float64 `json:"amount"`
}

// CreateOrder asks the backend for a payment order. The backend decides the
// charged amount and currency.
func (c *Client) CreateOrder(ctx context.Context, amount float64) (Order, error) {
	var out Order
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/payment/create-order",
		body:        createOrderRequest{Amount: amount},
		requireAuth: true,
	}, &out)
	return out, err
}
