// Package idp provides IdentityProvider adapters for the auth client.
//
// Two adapters ship with the module. REST speaks the hosted auth API of a
// Supabase-style backend: password and PKCE grants, refresh, OTP
// verification, user updates, and TOTP factor management. OIDC drives any
// standards-compliant provider through discovery and ID-token verification;
// operations the protocol has no surface for report ErrProviderUnsupported.
//
// Adapters translate wire-level failures into two shapes the client
// distinguishes: a decoded *authkit.ProviderError for responses the provider
// produced, and ErrProviderUnavailable for transport failures where nothing
// authoritative came back.
//
// Adapters hold no session state. The client owns persistence; an adapter
// only converts one request into one response.
package idp
