package authkit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartsmith/authkit/session"
)

type refreshFunc func(ctx context.Context) (*session.Session, error)

// refreshGate serializes token refreshes across concurrent call sites. At
// most one refresh is in flight; callers that lose the slot, or arrive
// inside the cooldown window, get nil back promptly. Nil always means "no
// refresh occurred", never "signed out".
type refreshGate struct {
	mu          sync.Mutex
	lastAttempt atomic.Int64
	cooldown    time.Duration
	store       *session.Store
	log         zerolog.Logger
	now         func() time.Time
}

func newRefreshGate(cooldown time.Duration, store *session.Store, log zerolog.Logger) *refreshGate {
	return &refreshGate{
		cooldown: cooldown,
		store:    store,
		log:      log,
		now:      time.Now,
	}
}

// run invokes refresh under the gate. The cooldown is checked once without
// the lock and once again under it; a refresh completed by another caller
// in between must not be repeated.
func (g *refreshGate) run(ctx context.Context, refresh refreshFunc) *session.Session {
	if g.coolingDown() {
		return nil
	}
	if !g.mu.TryLock() {
		return nil
	}
	defer g.mu.Unlock()

	if g.coolingDown() {
		return nil
	}

	return g.attempt(ctx, refresh)
}

// runBypassCooldown skips the cooldown check but keeps the single-flight
// guarantee. Used after factor unenrollment, where the cached token's
// assurance claim must be recomputed even if a refresh just happened.
func (g *refreshGate) runBypassCooldown(ctx context.Context, refresh refreshFunc) *session.Session {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.attempt(ctx, refresh)
}

func (g *refreshGate) attempt(ctx context.Context, refresh refreshFunc) (result *session.Session) {
	g.lastAttempt.Store(g.now().UnixNano())

	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Interface("panic", r).Msg("refresh function panicked")
			result = nil
		}
	}()

	s, err := refresh(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("refresh attempt failed")
		return nil
	}
	if s == nil || !s.Valid() {
		return nil
	}

	g.store.Save(ctx, *s)
	return s
}

func (g *refreshGate) coolingDown() bool {
	if g.cooldown <= 0 {
		return false
	}
	last := g.lastAttempt.Load()
	if last == 0 {
		return false
	}
	return g.now().Sub(time.Unix(0, last)) < g.cooldown
}
