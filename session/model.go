package session

import "time"

// Session defines a public type used by authkit APIs.
//
// Session holds the provider-issued token pair and the access token expiry.
// A Session missing either token is treated as absent everywhere in the
// client; Valid is the single source of that judgment.
type Session struct {
	AccessToken  string
	RefreshToken string

	// ExpiresAt is zero when the provider did not report an expiry.
	ExpiresAt time.Time
}

// Valid reports whether both tokens are present.
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// ExpiresWithin reports whether the access token expires inside the given
// window. An unknown expiry always reports true so callers err on the side
// of refreshing.
func (s Session) ExpiresWithin(window time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return true
	}
	return time.Until(s.ExpiresAt) < window
}
