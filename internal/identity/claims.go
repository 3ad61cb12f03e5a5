package identity

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityFromIDToken returns the email claim of an ID token, falling back
// to cognito:username and sub. The signature is not checked; the token is
// only read after it was received directly from the provider.
func IdentityFromIDToken(raw string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	for _, key := range []string{"email", "cognito:username", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func confirmedIdentity(idToken string, creds Credentials) string {
	if id := IdentityFromIDToken(idToken); id != "" {
		return id
	}
	return strings.TrimSpace(creds.Email)
}
