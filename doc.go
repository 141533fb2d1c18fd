// Package authkit orchestrates authentication and session lifecycle for a
// storefront client sitting in front of a hosted identity provider: password
// and OAuth2 (authorization code + PKCE) sign-in, durable session persistence
// over an eventually-consistent key-value store, single-flight token refresh,
// and TOTP multi-factor enrollment.
//
// The package is designed for concurrent callers: Client methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
// A background timer and a user action may race into RefreshSession; exactly
// one refresh reaches the provider.
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Client], [Builder], [Config],
// the consumed contracts ([CredentialStore], [IdentityProvider],
// [ProfileRepository]), and value types (SessionInfo, MfaFactor, etc.).
// Flow orchestration and PKCE verifier storage live under internal/ and are
// never exported. Provider and store adapters live in idp/ and credstore/.
//
// # What this package must NOT do
//
//   - Implement provider-side security: password hashing, token signing, and
//     factor secret generation belong to the identity provider.
//   - Fail an in-memory session because durable storage hiccuped. Storage
//     errors are logged and swallowed at the store boundary.
//   - Retry an OAuth code exchange. Authorization codes are single-use; a
//     failed exchange surfaces immediately after the verifier is cleared.
//
// # Performance contract
//
// GetCurrentSession and IsAuthenticated are the hot path: they read the
// cached session under a read lock and touch storage only when the cache is
// empty (warm restore). RefreshSession holds no lock while the provider call
// is in flight beyond the single-slot refresh gate.
package authkit
