// Package credstore ships reference implementations of the credential-store
// contract consumed by the authentication client: string key-value storage
// with transient-failure semantics and no compare-and-swap.
//
// # Adapters
//
//   - [Redis]: shared store for server-side deployments, one round-trip per
//     operation, absent keys reported distinctly from backend failures.
//   - [Bolt]: single-file embedded store for desktop and CLI storefront
//     clients that must survive process restarts.
//   - [Memory]: process-local map for tests and ephemeral sessions.
//
// # Architecture boundaries
//
// Adapters translate backend-native errors into [ErrUnavailable] wraps and
// nothing else. Retry, verification, and swallow policies live with the
// callers (session store, verifier vault); an adapter reports exactly what
// the backend did.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling package.
//   - Interpret stored values or impose TTLs on them.
//   - Mask a backend failure as an absent key.
package credstore
