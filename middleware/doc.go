// Package middleware exposes HTTP guards that resolve the shopper's session
// through an authkit.Client before a request reaches its handler.
//
// # Guards
//
//   - [RequireSession]: 401 for anonymous requests; API routes.
//   - [RedirectAnonymous]: redirect to the sign-in page with a return_to
//     parameter; server-rendered storefront pages.
//
// Each guard resolves the session once per request. Resolution includes the
// client's warm restore from the credential store and the near-expiry
// refresh, so a wrapped handler always sees the freshest token pair the
// client could produce. The session is injected into the request context and
// read back with [SessionFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into client calls. It does NOT
// implement authentication logic itself; pass or reject follows entirely
// from whether the client can produce a session.
//
// # What this package must NOT do
//
//   - Parse or verify tokens directly (the client owns that).
//   - Touch the credential store (the client owns I/O).
//   - Distinguish why a session is absent; absent is absent.
package middleware
