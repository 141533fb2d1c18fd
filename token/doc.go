// Package token decodes the identity provider's access tokens into the
// claims the storefront client projects: user id, email, expiry, and the
// authenticator assurance level.
//
// # Trust model
//
// Tokens are parsed WITHOUT signature verification. The provider signs them
// with its own key and verifies them on every API call; this client never
// makes an authorization decision from a decoded claim. Decoding exists only
// to project display identity and to infer expiry when the provider response
// omits one.
//
// # Architecture boundaries
//
// This package owns claim field mapping and structural validation of the
// token string. It does NOT fetch keys, verify signatures, or persist
// anything.
//
// # What this package must NOT do
//
//   - Import authkit, session, or idp (no upward imports).
//   - Treat a decoded claim as proof of authentication.
//   - Panic on hostile input; malformed tokens return [ErrMalformedToken].
package token
