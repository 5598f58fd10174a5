/*
Package api is the client for the GatherLocal backend.

Every call attaches the bearer token of the injected TokenSource when one is present,
waits on a client-side rate limiter, and translates transport and HTTP failures into
*errs.CustomError values so callers never see raw transport errors.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"gatherlocal/internal/pkg/auth/jwt"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
	"gatherlocal/internal/pkg/randx"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// TokenSource supplies the credential for outbound calls.
type TokenSource interface {
	// Token returns the current bearer token, empty when signed out.
	Token() string

	// Invalidate drops the session after the backend rejected its token.
	Invalidate()
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int

	// Transport overrides the HTTP transport (tests use httptest servers instead).
	Transport http.RoundTripper
}

// Client talks to the backend HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter

	mu     sync.RWMutex
	tokens TokenSource

	logger zerolog.Logger
}

// NewClient builds a Client. Outbound calls are logged by logx.Transport.
func NewClient(opts Options) *Client {
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &logx.Transport{Base: opts.Transport},
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logx.Component("api"),
	}
}

// UseTokens sets the session the client reads tokens from.
// It is separate from NewClient because the session itself authenticates through this client.
func (c *Client) UseTokens(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *Client) tokenSource() TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// request describes one backend call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        any
	requireAuth bool

	// credentialExchange marks login and register. They go out without a bearer and
	// their rejection is a credentials failure, never a sign-out.
	credentialExchange bool
}

// do performs the call and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	var token string
	ts := c.tokenSource()
	if ts != nil && !r.credentialExchange {
		token = ts.Token()
	}

	if r.requireAuth && token == "" {
		return errs.NewError(errs.ErrUnauthorized)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return errs.Wrap(errs.ErrNetwork, err)
	}

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return errs.Wrap(errs.ErrUnknown, fmt.Errorf("encode %s %s body: %w", r.method, r.path, err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return errs.Wrap(errs.ErrUnknown, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", randx.RequestID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", jwt.Bearer(token))
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(errs.ErrNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return c.rejection(res, r, token != "", ts)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Wrap(errs.ErrMalformedResponse, fmt.Errorf("%s %s: empty body", r.method, r.path))
		}
		return errs.Wrap(errs.ErrMalformedResponse, fmt.Errorf("%s %s: %w", r.method, r.path, err))
	}

	return nil
}

// rejection translates a non-2xx response. Only a 401 on a call that carried a
// token means the session is no longer valid, so only then is it invalidated. A 403
// is a refusal of this particular call and leaves the session alone.
func (c *Client) rejection(res *http.Response, r request, hadToken bool, ts TokenSource) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	msg := serverMessage(raw)
	cause := fmt.Errorf("backend answered %d", res.StatusCode)

	switch res.StatusCode {
	case http.StatusUnauthorized:
		if r.credentialExchange {
			return errs.Wrap(errs.ErrInvalidCredentials, cause).FromServer(msg)
		}
		if hadToken && ts != nil {
			c.logger.Warn().Str("path", r.path).Msg("Backend rejected the session token, signing out.")
			ts.Invalidate()
			return errs.Wrap(errs.ErrSessionExpired, cause).FromServer(msg)
		}
		return errs.Wrap(errs.ErrUnauthorized, cause).FromServer(msg)
	case http.StatusForbidden:
		if r.credentialExchange {
			return errs.Wrap(errs.ErrInvalidCredentials, cause).FromServer(msg)
		}
	case http.StatusTooManyRequests:
		return errs.Wrap(errs.ErrRateLimitExceeded, cause).FromServer(msg)
	}

	return errs.Wrap(errs.ErrServerRejected, cause).FromServer(msg)
}

// serverMessage extracts a human message from an error body: a JSON object's
// message or error field, or a short plain-text body.
func serverMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}

	if raw[0] == '{' || raw[0] == '[' || raw[0] == '<' || len(raw) > 200 {
		return ""
	}
	return string(raw)
}
