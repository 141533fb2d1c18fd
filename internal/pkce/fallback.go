package pkce

import (
	"sync"
	"time"
)

// Fallback is the process-scoped second storage tier for the verifier. The
// composition root creates exactly one and injects it into the vault; it is
// a deliberate singleton, not ambient global state.
type Fallback struct {
	mu       sync.Mutex
	verifier string
	storedAt time.Time
}

// NewFallback returns an empty fallback tier.
func NewFallback() *Fallback {
	return &Fallback{}
}

func (f *Fallback) set(verifier string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifier = verifier
	f.storedAt = at
}

func (f *Fallback) get() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifier == "" {
		return "", false
	}
	return f.verifier, true
}

func (f *Fallback) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifier = ""
	f.storedAt = time.Time{}
}
