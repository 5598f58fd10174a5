/*
Package session holds the authenticated identity and credential token of the single
user of this client.

The Store is created once and injected into every component that talks to the backend.
It persists to two slots (token and identity) so a restart can rehydrate without asking
the auth service, and it is the only place that sets or clears the token.
*/
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"gatherlocal/internal/app/api"
	"gatherlocal/internal/app/user"
	"gatherlocal/internal/clock"
	"gatherlocal/internal/pkg/auth/jwt"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
)

// Authenticator is the part of the backend the session signs in through.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	Register(ctx context.Context, fullName, email, password string) (api.AuthResponse, error)
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	Authenticated bool           `json:"authenticated"`
	User          *user.Identity `json:"user,omitempty"`
}

// Store is the session handle.
type Store struct {
	persister Persister
	auth      Authenticator
	clock     clock.Clock

	mu       sync.RWMutex
	token    string
	identity user.Identity

	obsMu     sync.Mutex
	observers []func(Snapshot)

	logger zerolog.Logger
}

// NewStore returns an unauthenticated store. Call Restore before first use.
func NewStore(p Persister, auth Authenticator, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Store{
		persister: p,
		auth:      auth,
		clock:     clk,
		logger:    logx.Component("session"),
	}
}

// Subscribe registers fn to be called after every session transition.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.obsMu.Lock()
	observers := append([]func(Snapshot){}, s.observers...)
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

// Restore rehydrates the session from the persisted slots without any network call.
// The session is authenticated only if both slots are present and usable; otherwise
// both slots are cleared.
func (s *Store) Restore() Snapshot {
	token, rawIdentity, err := s.persister.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not read persisted session, starting signed out.")
		s.reset()
		return s.Snapshot()
	}

	if token == "" || rawIdentity == "" {
		if token != "" || rawIdentity != "" {
			s.logger.Info().Msg("Persisted session is incomplete, clearing it.")
			s.reset()
		}
		return s.Snapshot()
	}

	identity, err := user.Decode(rawIdentity)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Persisted identity is corrupt, clearing session.")
		s.reset()
		return s.Snapshot()
	}

	if jwt.Expired(token, s.clock.Now()) {
		s.logger.Info().Str("email", identity.Email).Msg("Persisted token has expired, clearing session.")
		s.reset()
		return s.Snapshot()
	}

	s.mu.Lock()
	s.token = token
	s.identity = identity
	s.mu.Unlock()

	s.logger.Info().Str("email", identity.Email).Msg("Session restored.")
	s.notify()
	return s.Snapshot()
}

// reset clears memory and storage without notifying.
func (s *Store) reset() {
	s.mu.Lock()
	s.token = ""
	s.identity = user.Identity{}
	s.mu.Unlock()

	if err := s.persister.Clear(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear persisted session.")
	}
}

// Login signs in with email and password. On failure the current session is left
// as it was and the returned error carries the server's message when it sent one.
func (s *Store) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("Login rejected.")
		return authFailure(errs.ErrInvalidCredentials, err)
	}

	fullName := res.FullName
	if fullName == "" {
		if claims, err := jwt.Inspect(res.Token); err == nil {
			fullName = claims.FullName
		}
	}

	return s.establish(res.Token, user.Identity{Email: email, FullName: fullName}, errs.ErrInvalidCredentials)
}

// Register creates an account and signs in with it.
func (s *Store) Register(ctx context.Context, fullName, email, password string) error {
	fullName, email = strings.TrimSpace(fullName), strings.TrimSpace(email)
	if fullName == "" || email == "" || password == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	res, err := s.auth.Register(ctx, fullName, email, password)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("Registration rejected.")
		return authFailure(errs.ErrRegistrationFailed, err)
	}

	return s.establish(res.Token, user.Identity{Email: email, FullName: fullName}, errs.ErrRegistrationFailed)
}

// authFailure keeps network failures recognizable and files the rest under code.
func authFailure(code int, err error) error {
	if errs.KindOf(err) == errs.KindNetworkFailure {
		return errs.From(err)
	}
	return errs.Recode(code, err).WithKind(errs.KindAuthRejected)
}

// establish stores a freshly issued token. A storage failure is logged but does not
// fail the sign-in; the session then lasts until the process exits.
func (s *Store) establish(token string, identity user.Identity, code int) error {
	if token == "" {
		return errs.Wrap(code, errs.NewError(errs.ErrMalformedResponse))
	}

	encoded, err := identity.Encode()
	if err != nil {
		return errs.Wrap(errs.ErrUnknown, err)
	}

	s.mu.Lock()
	s.token = token
	s.identity = identity
	s.mu.Unlock()

	if err := s.persister.Save(token, encoded); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist session; it will not survive a restart.")
	}

	s.logger.Info().Str("email", identity.Email).Msg("Signed in.")
	s.notify()
	return nil
}

// Logout clears the session and both persisted slots. It cannot fail.
func (s *Store) Logout() {
	s.reset()
	s.logger.Info().Msg("Signed out.")
	s.notify()
}

// Invalidate signs out after the backend rejected the token.
func (s *Store) Invalidate() {
	if !s.Authenticated() {
		return
	}
	s.reset()
	s.logger.Warn().Msg("Session invalidated by the backend.")
	s.notify()
}

// Token returns the bearer token, empty when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the signed-in user.
func (s *Store) Identity() (user.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.token != ""
}

// Authenticated reports whether a token is held.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Snapshot returns the current session view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return Snapshot{}
	}
	identity := s.identity
	return Snapshot{Authenticated: true, User: &identity}
}
