// Package session holds the operator's authentication session and decides
// whether it is still usable.
package session

import (
	"time"
)

// Session is the authenticated identity's bearer token, access token,
// expiry and identity reference. A Session is only meaningful when all
// four fields are set.
type Session struct {
	IDToken     string
	AccessToken string
	ExpiresAt   time.Time
	Identity    string
}

// Complete reports whether every field of the session is set.
func (s Session) Complete() bool {
	return s.IDToken != "" && s.AccessToken != "" && !s.ExpiresAt.IsZero() && s.Identity != ""
}

// IsValid reports whether s can still be presented at time now. A session
// whose expiry equals now is expired.
func IsValid(s Session, now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Store persists the current session.
//
// Load never fails: a missing or partial record is reported as absent.
// Clear on an empty store is a no-op.
type Store interface {
	Save(s Session) error
	Load() (Session, bool)
	Clear() error
}
