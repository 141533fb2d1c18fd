// Package flows contains pure-function orchestrators for the OAuth redirect
// round trip.
//
// Each flow function (RunStart, RunCallback) accepts a typed dependency
// struct and returns a result without side-effects beyond those
// dependencies. This design enables exhaustive unit testing with fake
// dependencies and keeps the Client type thin.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the verifier vault, the identity
// provider, and the return-URL store. They do NOT own any of these
// resources; ownership stays with the Client.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency
//     closures.
package flows
