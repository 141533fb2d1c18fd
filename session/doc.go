// Package session provides the durable session model and the three-key
// persistence layer used by the authentication client.
//
// # Storage layout
//
// A session is persisted as three string values under a configurable key
// prefix: the access token, the refresh token, and the access token expiry
// serialized as RFC 3339 UTC (sortable). A session missing either token is
// absent; there is no half-session state on read.
//
// # Degradation
//
// The backing store is transiently fallible and eventually consistent.
// Every storage error in this package is logged and swallowed: Load reports
// absence, Save and Clear degrade silently. An in-memory session held by the
// client is never invalidated by a storage hiccup.
//
// # Architecture boundaries
//
// This package owns the [Store] (key layout, serialization, degradation
// policy) and the [Session] model. It does NOT decode tokens, talk to the
// identity provider, or decide when a refresh happens; those
// responsibilities belong to the Client.
//
// # What this package must NOT do
//
//   - Import authkit, token, or idp (no upward imports).
//   - Return a storage error to the caller.
//   - Interpret the contents of either token.
package session
