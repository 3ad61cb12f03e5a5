package auth

import (
	"net/http"
	"strings"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/apperrors"
)

var (
	ErrAuth             apperrors.Error = apperrors.New("auth error").SetStatusCode(http.StatusInternalServerError)
	ErrSessionNotSaved  apperrors.Error = ErrAuth.New("Unable to save your session. Please try again.")
	ErrSessionNotLoaded apperrors.Error = ErrAuth.New("Signed in, but the session could not be confirmed. Please try again.")
	ErrNotAuthenticated apperrors.Error = ErrAuth.New("Authentication required").SetStatusCode(http.StatusUnauthorized)
)

// LoginError is returned by Login. Its message is safe to show to the
// operator; the underlying provider error is available through Unwrap.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

var loginMessages = []struct {
	fragment string
	message  string
}{
	{"Incorrect username or password", "Incorrect email or password. Please try again."},
	{"User is not confirmed", "Your account has not been confirmed. Please check your email for a confirmation link."},
	{"User does not exist", "No account found with this email address."},
	{"Password attempts exceeded", "Too many failed login attempts. Please try again later."},
}

// Translate turns a known identity provider message into a sentence for the
// operator. Unknown messages are returned unchanged.
func Translate(msg string) string {
	for _, m := range loginMessages {
		if strings.Contains(msg, m.fragment) {
			return m.message
		}
	}
	return msg
}

func newLoginError(err error) *LoginError {
	return &LoginError{Message: Translate(err.Error()), Err: err}
}
