// Package bootstrap determines the authentication state of the console at startup and keeps
// track of the signed in identity afterwards.
package bootstrap

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
)

// State is the authentication state of the session.
type State uint8

const (
	// NotStarted means Start was not called yet.
	NotStarted State = iota
	// Checking means the stored credential is being verified.
	Checking
	// Authenticated means an identity is signed in.
	Authenticated
	// Unauthenticated means nobody is signed in.
	Unauthenticated
)

// String returns a human readable state name.
func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// ErrInvalidCredentials is returned by Login when the remote platform rejects the credentials.
var ErrInvalidCredentials = errors.New("invalid username or password")

// TokenStore persists the credential token.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Authenticator talks to the remote identity endpoints.
type Authenticator interface {
	FetchIdentity(ctx context.Context, token string) (domain.Identity, error)
	Login(ctx context.Context, username, password string) (string, domain.Identity, error)
}

// Hook is called after every change of the signed in identity. identity is nil after a logout.
type Hook func(ctx context.Context, identity *domain.Identity)

// Session owns the identity of the running console.
type Session struct {
	tokens TokenStore
	auth   Authenticator

	startOnce sync.Once
	done      chan struct{}

	mu       sync.RWMutex
	state    State
	identity *domain.Identity
	hooks    []Hook
}

// New creates a session in the NotStarted state.
func New(tokens TokenStore, auth Authenticator) *Session {
	return &Session{
		tokens: tokens,
		auth:   auth,
		done:   make(chan struct{}),
	}
}

// OnChange registers a hook. Hooks run in registration order, after the state was updated.
func (s *Session) OnChange(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, h)
}

// Start resolves the stored credential into an identity. It runs once per Session; later
// and concurrent calls wait for the first run and return its outcome. Failures never escape:
// any problem with the stored credential ends in Unauthenticated with the token removed.
func (s *Session) Start(ctx context.Context) State {
	s.startOnce.Do(func() {
		defer close(s.done)

		s.setState(Checking, nil)

		identity := s.check(ctx)
		if identity == nil {
			s.setState(Unauthenticated, nil)
			log.Info().Msg("no valid stored credential, starting unauthenticated")
			s.notify(ctx, nil)

			return
		}

		s.setState(Authenticated, identity)
		log.Info().Int64("identity_id", identity.ID).Str("username", identity.Username).
			Msg("restored session from stored credential")
		s.notify(ctx, identity)
	})

	<-s.done

	return s.State()
}

func (s *Session) check(ctx context.Context) *domain.Identity {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read stored credential")
		return nil
	}

	if token == "" {
		return nil
	}

	identity, err := s.auth.FetchIdentity(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			log.Info().Msg("stored credential was rejected")
		} else {
			log.Warn().Err(err).Msg("identity fetch failed, treating as signed out")
		}

		if errClear := s.tokens.ClearToken(ctx); errClear != nil {
			log.Error().Err(errClear).Msg("failed to clear stored credential")
		}

		return nil
	}

	return &identity
}

// Ready reports whether the initial check completed.
func (s *Session) Ready() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed once the initial check completed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Identity returns a copy of the signed in identity or nil.
func (s *Session) Identity() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return nil
	}

	identity := *s.identity

	return &identity
}

// Login authenticates against the remote platform and stores the returned credential.
func (s *Session) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	token, identity, err := s.auth.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if err = s.tokens.SetToken(ctx, token); err != nil {
		return nil, err
	}

	s.setState(Authenticated, &identity)
	log.Info().Int64("identity_id", identity.ID).Str("username", identity.Username).Msg("signed in")
	s.notify(ctx, &identity)

	return s.Identity(), nil
}

// Logout forgets the identity and the stored credential.
func (s *Session) Logout(ctx context.Context) error {
	err := s.tokens.ClearToken(ctx)

	s.setState(Unauthenticated, nil)
	log.Info().Msg("signed out")
	s.notify(ctx, nil)

	return err
}

// Expire signs out after the remote platform rejected the credential mid-session.
func (s *Session) Expire(ctx context.Context) {
	log.Warn().Msg("credential rejected by remote platform, signing out")

	if err := s.Logout(ctx); err != nil {
		log.Error().Err(err).Msg("failed to clear stored credential")
	}
}

func (s *Session) setState(state State, identity *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
	s.identity = identity
}

func (s *Session) notify(ctx context.Context, identity *domain.Identity) {
	s.mu.RLock()
	hooks := make([]Hook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.RUnlock()

	for _, h := range hooks {
		var arg *domain.Identity

		if identity != nil {
			cp := *identity
			arg = &cp
		}

		h(ctx, arg)
	}
}
