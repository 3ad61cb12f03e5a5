// Package identity authenticates operator credentials against the managed
// identity service and returns the issued tokens.
package identity

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Credentials are the email and password an operator signs in with.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return ErrEmailRequired
	}
	if c.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// Tokens are issued by a successful password grant. Identity is the
// provider-confirmed subject, usually the email claim of the ID token.
type Tokens struct {
	IDToken     string
	AccessToken string
	ExpiresIn   time.Duration
	Identity    string
}

// Provider performs a username/password grant.
type Provider interface {
	Authenticate(ctx context.Context, creds Credentials) (*Tokens, error)
}

// ProviderError is a rejection reported by the identity service. Message
// is the provider's own text, e.g. "Incorrect username or password.".
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "Authentication failed"
}

// Option configures a provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the client used to reach the identity service.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

func applyOptions(opts []Option) options {
	o := options{httpClient: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
