// Package auth tracks whether an operator is signed in and gates access to
// protected operations.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/session"
)

// State is the sign-in state of a Provider.
type State int

const (
	// StateUnknown holds until the first session check completes.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Provider owns the sign-in state. It is safe for concurrent use; logins are
// serialised.
type Provider struct {
	store session.Store
	idp   identity.Provider
	now   func() time.Time

	mu       sync.RWMutex
	state    State
	identity string

	loginMu sync.Mutex
}

type Option func(*Provider)

// WithClock replaces the clock used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider returns a provider in StateUnknown. Call Start to perform the
// first session check.
func NewProvider(store session.Store, idp identity.Provider, opts ...Option) *Provider {
	p := &Provider{
		store: store,
		idp:   idp,
		now:   time.Now,
		state: StateUnknown,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start performs the initial session check and returns the resulting state.
func (p *Provider) Start(ctx context.Context) State {
	p.RefreshUserData()
	st := p.State()
	log.Ctx(ctx).Debug().Str("state", st.String()).Msg("session check complete")
	return st
}

func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Identity returns the signed in identity, or "" when not authenticated.
func (p *Provider) Identity() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity
}

func (p *Provider) set(st State, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = st
	p.identity = id
}

// RefreshUserData re-reads the stored session and adopts its identity when
// it is still valid. An expired session is cleared from the store. It never
// calls the network.
func (p *Provider) RefreshUserData() (string, bool) {
	s, ok := p.validSession()
	if !ok {
		p.set(StateUnauthenticated, "")
		return "", false
	}
	p.set(StateAuthenticated, s.Identity)
	return s.Identity, true
}

// validSession loads the stored session and destroys it when it has expired.
func (p *Provider) validSession() (session.Session, bool) {
	s, ok := p.store.Load()
	if !ok {
		return session.Session{}, false
	}
	if !session.IsValid(s, p.now()) {
		if err := p.store.Clear(); err != nil {
			log.Error().Err(err).Msg("unable to clear expired session")
		} else {
			log.Debug().Time("expires_at", s.ExpiresAt).Msg("expired session cleared")
		}
		return session.Session{}, false
	}
	return s, true
}

// Login exchanges credentials for tokens and stores the new session. On any
// failure nothing is saved, the provider is unauthenticated and the returned
// *LoginError carries an operator facing message.
func (p *Provider) Login(ctx context.Context, creds identity.Credentials) error {
	p.loginMu.Lock()
	defer p.loginMu.Unlock()

	logger := log.Ctx(ctx).With().Str("email", creds.Email).Logger()

	if err := creds.Validate(); err != nil {
		p.set(StateUnauthenticated, "")
		return newLoginError(err)
	}

	tokens, err := p.idp.Authenticate(ctx, creds)
	if err != nil {
		logger.Info().Err(err).Msg("login rejected")
		p.set(StateUnauthenticated, "")
		return newLoginError(err)
	}

	s := session.Session{
		IDToken:     tokens.IDToken,
		AccessToken: tokens.AccessToken,
		ExpiresAt:   p.now().Add(tokens.ExpiresIn),
		Identity:    tokens.Identity,
	}
	if err := p.store.Save(s); err != nil {
		logger.Error().Err(err).Msg("unable to save session")
		p.set(StateUnauthenticated, "")
		return &LoginError{Message: ErrSessionNotSaved.Error(), Err: ErrSessionNotSaved.Err(err)}
	}

	if _, ok := p.RefreshUserData(); !ok {
		logger.Error().Msg("saved session did not validate")
		_ = p.store.Clear()
		return &LoginError{Message: ErrSessionNotLoaded.Error(), Err: ErrSessionNotLoaded}
	}
	logger.Info().Time("expires_at", s.ExpiresAt).Msg("signed in")
	return nil
}

// Logout clears the stored session. It is safe to call when already signed
// out.
func (p *Provider) Logout(ctx context.Context) error {
	err := p.store.Clear()
	p.set(StateUnauthenticated, "")
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to clear session")
		return err
	}
	log.Ctx(ctx).Debug().Msg("signed out")
	return nil
}

// Session returns the stored session when it is still valid. An expired
// session is cleared from the store.
func (p *Provider) Session() (session.Session, bool) {
	return p.validSession()
}
