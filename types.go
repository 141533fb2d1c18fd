package authkit

import (
	"context"
	"time"

	"github.com/cartsmith/authkit/session"
)

// Session is the token pair held for a signed-in shopper, re-exported from
// the session package for callers that only import the root.
type Session = session.Session

// SessionInfo is a read-only projection of the current session returned by
// [Client.GetCurrentSession]. UserID and UserEmail come from the cached
// provider user when present, otherwise from the access token claims.
type SessionInfo struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	UserEmail    string
}

// User is the provider's account record as seen by this client. Metadata
// carries the provider's free-form user metadata untouched.
type User struct {
	ID             string
	Email          string
	EmailConfirmed bool
	Metadata       map[string]any
	CreatedAt      time.Time
}

// ProviderSession is the provider's response to any operation that mints or
// rotates tokens: the token pair plus the user it belongs to. User may be
// nil when the provider omits it.
type ProviderSession struct {
	Session Session
	User    *User
}

// OAuthRedirect is returned by [IdentityProvider.OAuthAuthorizeURL]. The
// verifier must be retained by the caller across the redirect; the provider
// only accepts the exchange when it is presented with the code.
type OAuthRedirect struct {
	URL      string
	Verifier string
}

// OAuthStart is returned by [Client.SignInWithOAuth]. URL is the provider
// authorize endpoint the caller must redirect the shopper to; FlowID
// correlates the audit trail of one redirect round trip.
type OAuthStart struct {
	URL    string
	FlowID string
}

// OAuthCallbackResult is returned by [Client.HandleOAuthCallback] on
// success. ReturnURL is the page the shopper was on before the redirect,
// empty when none was recorded.
type OAuthCallbackResult struct {
	Session   SessionInfo
	ReturnURL string
}

// MfaFactor describes one enrolled second factor as reported by the
// provider.
type MfaFactor struct {
	ID           string
	Type         string
	Status       string
	FriendlyName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MfaChallenge is the ephemeral challenge minted by
// [Client.ChallengeMFA]. The caller holds it between Challenge and Verify;
// nothing is persisted client-side.
type MfaChallenge struct {
	ID        string
	FactorID  string
	ExpiresAt time.Time
}

// FactorProvision is the provider-level result of enrolling a factor. URI
// is the provider's own otpauth provisioning URI and may be empty.
type FactorProvision struct {
	FactorID     string
	FactorType   string
	Secret       string
	URI          string
	FriendlyName string
}

// MfaEnrollment is returned by [Client.EnrollMFA]. QRPayload is always a
// compact otpauth://totp URI suitable for QR encoding.
type MfaEnrollment struct {
	FactorID  string
	Secret    string
	QRPayload string
}

// EnrollMFARequest is the input for [Client.EnrollMFA]. FriendlyName
// defaults to a generated name when empty.
type EnrollMFARequest struct {
	FriendlyName string
}

// OTPType selects the verification flow for [Client.VerifyEmailOTP].
type OTPType string

const (
	// OTPTypeSignup is an exported constant or variable used by the auth client.
	OTPTypeSignup OTPType = "signup"
	// OTPTypeEmail is an exported constant or variable used by the auth client.
	OTPTypeEmail OTPType = "email"
	// OTPTypeRecovery is an exported constant or variable used by the auth client.
	OTPTypeRecovery OTPType = "recovery"
)

// OTPVerification is the input for [IdentityProvider.VerifyOTP].
type OTPVerification struct {
	Email string
	Token string
	Type  OTPType
}

// UserUpdate is the input for [IdentityProvider.UpdateUser]. Zero-valued
// fields are left unchanged on the provider.
type UserUpdate struct {
	Email    string
	Password string
	Metadata map[string]any
}

// ProfileRecord is the storefront-side projection of a provider user,
// consumed by [ProfileRepository].
type ProfileRecord struct {
	UserID   string
	Email    string
	FullName string
}

// CredentialStore is the durable string key-value contract every persisted
// artifact goes through. Implementations may be eventually consistent and
// transiently fallible; Get reports absence via the bool, never via an
// error. No compare-and-swap is available or assumed.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// IdentityProvider is the hosted identity service contract. It owns
// credential verification, token minting, and factor state; this client
// never re-implements any of that. Adapters live in the idp package.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*ProviderSession, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*ProviderSession, error)
	OAuthAuthorizeURL(ctx context.Context, provider, redirectTo string) (*OAuthRedirect, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*ProviderSession, error)
	Refresh(ctx context.Context, refreshToken string) (*ProviderSession, error)
	ActiveSession(ctx context.Context) (*ProviderSession, error)
	SignOut(ctx context.Context, accessToken string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	VerifyOTP(ctx context.Context, req OTPVerification) (*ProviderSession, error)
	UpdateUser(ctx context.Context, accessToken string, update UserUpdate) (*User, error)
	EnrollFactor(ctx context.Context, accessToken, friendlyName string) (*FactorProvision, error)
	ChallengeFactor(ctx context.Context, accessToken, factorID string) (*MfaChallenge, error)
	VerifyFactor(ctx context.Context, accessToken, factorID, challengeID, code string) (*ProviderSession, error)
	UnenrollFactor(ctx context.Context, accessToken, factorID string) error
	ListFactors(ctx context.Context, accessToken string) ([]MfaFactor, error)
}

// ProfileRepository receives best-effort profile projections after sign-up
// and OAuth sign-in. Upsert must be idempotent by UserID; failures are
// logged and audited by the client but never fail the auth operation.
type ProfileRepository interface {
	Upsert(ctx context.Context, record ProfileRecord) error
}
