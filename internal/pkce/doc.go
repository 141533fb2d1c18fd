// Package pkce stores the PKCE code verifier across a full-page OAuth
// redirect round trip despite unreliable durable storage.
//
// # Design
//
// Store writes the verifier durably, waits a short settle delay, reads it
// back, and compares. Mismatches retry with linearly increasing backoff up
// to a bounded attempt count. When the durable tier never verifies, the
// verifier is still kept in a process-scoped fallback so same-process
// navigation (no full reload) can complete the exchange. Get prefers the
// durable tier; Clear empties both.
//
// # Architecture boundaries
//
// This package owns verifier persistence and the two-tier read policy. It
// does NOT generate verifiers, build authorization URLs, or exchange codes.
//
// # What this package must NOT do
//
//   - Return a storage error to the caller; degradation is logged and the
//     fallback takes over.
//   - Assume compare-and-swap or transactional behavior from the backend.
//   - Keep a verifier beyond Clear.
package pkce
