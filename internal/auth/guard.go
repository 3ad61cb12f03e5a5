package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
)

// Decision is what a guarded caller should do.
type Decision int

const (
	// Loading means the first session check has not completed yet.
	Loading Decision = iota
	Allow
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "loading"
}

// Guard decides whether protected content may be shown.
type Guard struct {
	provider *Provider
}

func NewGuard(p *Provider) *Guard {
	return &Guard{provider: p}
}

// Check re-validates the stored session on every call, so a session that has
// expired since sign in is refused even though its token is still stored.
func (g *Guard) Check() Decision {
	if g.provider.State() == StateUnknown {
		return Loading
	}
	if _, ok := g.provider.RefreshUserData(); ok {
		return Allow
	}
	return Redirect
}

type ctxKeyType string

const identityContextKey ctxKeyType = "identity"

// WithIdentity returns a context carrying the signed in identity.
func WithIdentity(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the identity stored by RequireSession.
func IdentityFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityContextKey).(string)
	return id
}

// RequireSession guards a handler. While the first session check is pending
// it answers 503. Without a valid session browsers are redirected to
// loginPath and API clients receive 401.
func RequireSession(p *Provider, loginPath string) func(http.Handler) http.Handler {
	g := NewGuard(p)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.Ctx(r.Context())
			switch g.Check() {
			case Loading:
				w.Header().Set("Retry-After", "1")
				httpx.ErrServiceUnavailable("Checking session").Send(w)
			case Redirect:
				logger.Debug().Str("path", r.URL.Path).Msg("no valid session")
				if wantsJSON(r) {
					httpx.ErrUnAuthorized(ErrNotAuthenticated.Error()).Send(w)
					return
				}
				http.Redirect(w, r, loginPath, http.StatusFound)
			default:
				ctx := WithIdentity(r.Context(), p.Identity())
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
