package authkit

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the auth client.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSignUpFailed is an exported constant or variable used by the auth client.
	ErrSignUpFailed = errors.New("sign up rejected")
	// ErrNotAuthenticated is an exported constant or variable used by the auth client.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRefreshFailed is an exported constant or variable used by the auth client.
	ErrRefreshFailed = errors.New("session refresh failed")
	// ErrSignOutFailed is an exported constant or variable used by the auth client.
	ErrSignOutFailed = errors.New("provider sign out failed")
	// ErrOAuthInitiation is an exported constant or variable used by the auth client.
	ErrOAuthInitiation = errors.New("oauth sign in could not be initiated")
	// ErrOAuthMissingCode is an exported constant or variable used by the auth client.
	ErrOAuthMissingCode = errors.New("authorization code missing from callback")
	// ErrOAuthStateLost is an exported constant or variable used by the auth client.
	ErrOAuthStateLost = errors.New("pkce verifier lost before code exchange")
	// ErrOAuthExchange is an exported constant or variable used by the auth client.
	ErrOAuthExchange = errors.New("authorization code exchange failed")
	// ErrPasswordResetFailed is an exported constant or variable used by the auth client.
	ErrPasswordResetFailed = errors.New("password reset request failed")
	// ErrPasswordUpdateFailed is an exported constant or variable used by the auth client.
	ErrPasswordUpdateFailed = errors.New("password update failed")
	// ErrOTPVerification is an exported constant or variable used by the auth client.
	ErrOTPVerification = errors.New("otp verification failed")
	// ErrProfileUpdateFailed is an exported constant or variable used by the auth client.
	ErrProfileUpdateFailed = errors.New("profile update failed")
	// ErrMfaEnroll is an exported constant or variable used by the auth client.
	ErrMfaEnroll = errors.New("mfa factor enrollment failed")
	// ErrMfaChallenge is an exported constant or variable used by the auth client.
	ErrMfaChallenge = errors.New("mfa challenge failed")
	// ErrMfaInvalidCode is an exported constant or variable used by the auth client.
	ErrMfaInvalidCode = errors.New("invalid mfa code")
	// ErrMfaUnenroll is an exported constant or variable used by the auth client.
	ErrMfaUnenroll = errors.New("mfa factor unenrollment failed")
	// ErrMfaList is an exported constant or variable used by the auth client.
	ErrMfaList = errors.New("mfa factor listing failed")
	// ErrProviderUnavailable is an exported constant or variable used by the auth client.
	ErrProviderUnavailable = errors.New("identity provider unreachable")
	// ErrProviderUnsupported is an exported constant or variable used by the auth client.
	ErrProviderUnsupported = errors.New("operation not supported by this identity provider")
	// ErrClientNotReady is an exported constant or variable used by the auth client.
	ErrClientNotReady = errors.New("client not initialized")
)
