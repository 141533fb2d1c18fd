package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is an exported constant or variable used by the authentication client.
var ErrMalformedToken = errors.New("malformed access token")

const (
	// AssuranceLevel1 is an exported constant or variable used by the authentication client.
	AssuranceLevel1 = "aal1"
	// AssuranceLevel2 is an exported constant or variable used by the authentication client.
	AssuranceLevel2 = "aal2"
)

// SessionClaims defines a public type used by authkit APIs.
//
// SessionClaims carries the provider-issued claims this client projects out
// of an access token. Unknown claims are ignored.
type SessionClaims struct {
	Email          string `json:"email,omitempty"`
	AssuranceLevel string `json:"aal,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *SessionClaims) UserID() string {
	return c.Subject
}

// Expiry returns the exp claim, zero when absent.
func (c *SessionClaims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Elevated reports whether the session presented an additional factor.
func (c *SessionClaims) Elevated() bool {
	return c.AssuranceLevel == AssuranceLevel2
}

// ParseSessionClaims decodes an access token without verifying its
// signature. Structural problems (wrong segment count, bad base64, non-JSON
// payload) return [ErrMalformedToken]; claim validation is the provider's
// job, not this client's.
func ParseSessionClaims(tokenStr string) (*SessionClaims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	claims := &SessionClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}
