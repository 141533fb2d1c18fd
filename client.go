package authkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartsmith/authkit/internal/pkce"
	"github.com/cartsmith/authkit/session"
	"github.com/cartsmith/authkit/token"
)

// Client defines a public type used by authkit APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	config   Config
	creds    CredentialStore
	provider IdentityProvider
	profiles ProfileRepository
	store    *session.Store
	vault    *pkce.Vault
	gate     *refreshGate
	audit    *auditDispatcher
	metrics  *Metrics
	log      zerolog.Logger

	mu      sync.RWMutex
	current *session.Session
	user    *User
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// SignIn describes the signin operation and its observable behavior.
//
// SignIn may return an error when input validation, dependency calls, or security checks fail.
// SignIn does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) SignIn(ctx context.Context, email, password string) (*SessionInfo, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	ps, err := c.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		wrapped := wrapProvider(ErrInvalidCredentials, err)
		c.metricInc(MetricSignInFailure)
		c.emitAudit(ctx, auditEventSignInFailure, false, "", "", "", wrapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, wrapped
	}
	if ps == nil || !ps.Session.Valid() {
		c.metricInc(MetricSignInFailure)
		return nil, fmt.Errorf("%w: provider returned no session", ErrInvalidCredentials)
	}

	s := c.adoptProviderSession(ctx, ps, true)
	c.metricInc(MetricSignInSuccess)
	c.emitAudit(ctx, auditEventSignInSuccess, true, userIDOf(ps), "", "", nil, nil)

	info := c.sessionInfo(s)
	return &info, nil
}

// SignUp describes the signup operation and its observable behavior.
//
// SignUp may return an error when input validation, dependency calls, or security checks fail.
// SignUp does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SessionInfo, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	ps, err := c.provider.SignUp(ctx, email, password, metadata)
	if err != nil {
		wrapped := wrapProvider(ErrSignUpFailed, err)
		c.metricInc(MetricSignUpFailure)
		c.emitAudit(ctx, auditEventSignUpFailure, false, "", "", "", wrapped, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, wrapped
	}
	if ps == nil {
		c.metricInc(MetricSignUpFailure)
		return nil, fmt.Errorf("%w: provider returned nothing", ErrSignUpFailed)
	}

	c.upsertProfile(ctx, ps.User)
	c.metricInc(MetricSignUpSuccess)
	c.emitAudit(ctx, auditEventSignUpSuccess, true, userIDOf(ps), "", "", nil, nil)

	// Providers that require email confirmation return the user without
	// tokens; the account exists but no session starts yet.
	if !ps.Session.Valid() {
		return nil, nil
	}

	s := c.adoptProviderSession(ctx, ps, true)
	info := c.sessionInfo(s)
	return &info, nil
}

// SignOut describes the signout operation and its observable behavior.
//
// SignOut may return an error when input validation, dependency calls, or security checks fail.
// SignOut does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) SignOut(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}

	s, had := c.snapshot()

	c.mu.Lock()
	c.current = nil
	c.user = nil
	c.mu.Unlock()

	c.store.Clear(ctx)

	if had && c.provider != nil {
		if err := c.provider.SignOut(ctx, s.AccessToken); err != nil {
			c.log.Warn().Err(err).Msg("provider sign out failed")
			c.metricInc(MetricSignOut)
			c.emitAudit(ctx, auditEventSignOut, false, "", "", "", fmt.Errorf("%w: %v", ErrSignOutFailed, err), nil)
			return nil
		}
	}

	c.metricInc(MetricSignOut)
	c.emitAudit(ctx, auditEventSignOut, true, "", "", "", nil, nil)
	return nil
}

// GetCurrentSession describes the getcurrentsession operation and its observable behavior.
//
// GetCurrentSession may return an error when input validation, dependency calls, or security checks fail.
// GetCurrentSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) GetCurrentSession(ctx context.Context) (*SessionInfo, bool) {
	if c == nil {
		return nil, false
	}

	start := time.Now()
	defer func() {
		if c.metrics.LatencyEnabled() {
			c.metrics.Observe(MetricSessionReadLatency, time.Since(start))
		}
	}()

	s, ok := c.currentOrRestore(ctx)
	if !ok {
		return nil, false
	}

	s = c.ensureFresh(ctx, s)

	info := c.sessionInfo(s)
	return &info, true
}

// GetCurrentUser describes the getcurrentuser operation and its observable behavior.
//
// GetCurrentUser may return an error when input validation, dependency calls, or security checks fail.
// GetCurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	u := c.user
	c.mu.RUnlock()
	if u != nil {
		cp := *u
		return &cp, true
	}

	s, ok := c.currentOrRestore(ctx)
	if !ok {
		return nil, false
	}

	claims, err := token.ParseSessionClaims(s.AccessToken)
	if err != nil {
		return nil, false
	}
	return &User{ID: claims.UserID(), Email: claims.Email}, true
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
//
// IsAuthenticated may return an error when input validation, dependency calls, or security checks fail.
// IsAuthenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	if c == nil {
		return false
	}
	_, ok := c.currentOrRestore(ctx)
	return ok
}

// RefreshSession describes the refreshsession operation and its observable behavior.
//
// RefreshSession may return an error when input validation, dependency calls, or security checks fail.
// RefreshSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RefreshSession(ctx context.Context) (*SessionInfo, error) {
	if c == nil || c.provider == nil {
		return nil, ErrClientNotReady
	}

	s, ok := c.currentOrRestore(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	var refreshErr error
	refreshed := c.gate.run(ctx, func(ctx context.Context) (*session.Session, error) {
		ns, err := c.refreshOnce(ctx, s.RefreshToken)
		refreshErr = err
		return ns, err
	})

	if refreshed != nil {
		info := c.sessionInfo(*refreshed)
		return &info, nil
	}
	if refreshErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, refreshErr)
	}

	// Skipped: the cooldown is active or another caller holds the slot.
	c.metricInc(MetricRefreshSkipped)
	if latest, ok := c.snapshot(); ok {
		info := c.sessionInfo(latest)
		return &info, nil
	}
	return nil, ErrNotAuthenticated
}

// refreshOnce performs one provider refresh and adopts the result.
// Persistence is the gate's job; only in-memory state changes here. A
// definitive provider rejection drops the session, an unreachable provider
// leaves it in place.
func (c *Client) refreshOnce(ctx context.Context, refreshToken string) (*session.Session, error) {
	ps, err := c.provider.Refresh(ctx, refreshToken)
	if err != nil {
		c.metricInc(MetricRefreshFailure)
		c.emitAudit(ctx, auditEventRefreshFailure, false, "", "", "", fmt.Errorf("%w: %v", ErrRefreshFailed, err), nil)
		if refreshRejected(err) {
			c.dropSession(ctx)
		}
		return nil, err
	}
	if ps == nil || !ps.Session.Valid() {
		c.metricInc(MetricRefreshFailure)
		return nil, errors.New("provider returned no session")
	}

	s := c.adoptProviderSession(ctx, ps, false)
	c.metricInc(MetricRefreshSuccess)
	c.emitAudit(ctx, auditEventRefreshSuccess, true, userIDOf(ps), "", "", nil, nil)
	return &s, nil
}

// ensureFresh refreshes a session nearing expiry. A nil gate result means
// another caller refreshed or the attempt was skipped; the session in hand
// stays usable either way.
func (c *Client) ensureFresh(ctx context.Context, s session.Session) session.Session {
	if !c.store.ShouldRefresh(s) {
		return s
	}

	if refreshed := c.gate.run(ctx, func(ctx context.Context) (*session.Session, error) {
		return c.refreshOnce(ctx, s.RefreshToken)
	}); refreshed != nil {
		return *refreshed
	}

	if latest, ok := c.snapshot(); ok {
		return latest
	}
	return s
}

// snapshot returns the in-memory session without touching storage.
func (c *Client) snapshot() (session.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return session.Session{}, false
	}
	return *c.current, true
}

// currentOrRestore returns the live session, warm-restoring from durable
// storage when the process holds none.
func (c *Client) currentOrRestore(ctx context.Context) (session.Session, bool) {
	if s, ok := c.snapshot(); ok {
		return s, true
	}

	s, ok := c.store.Load(ctx)
	if !ok {
		return session.Session{}, false
	}

	c.mu.Lock()
	if c.current == nil {
		cp := s
		c.current = &cp
	} else {
		s = *c.current
	}
	c.mu.Unlock()

	userID := ""
	if claims, err := token.ParseSessionClaims(s.AccessToken); err == nil {
		userID = claims.UserID()
	}
	c.metricInc(MetricSessionRestored)
	c.emitAudit(ctx, auditEventSessionRestored, true, userID, "", "", nil, nil)

	return s, true
}

func (c *Client) adoptProviderSession(ctx context.Context, ps *ProviderSession, persist bool) session.Session {
	s := ps.Session

	c.mu.Lock()
	cp := s
	c.current = &cp
	if ps.User != nil {
		u := *ps.User
		c.user = &u
	}
	c.mu.Unlock()

	if persist {
		c.store.Save(ctx, s)
	}
	return s
}

func (c *Client) dropSession(ctx context.Context) {
	c.mu.Lock()
	c.current = nil
	c.user = nil
	c.mu.Unlock()

	c.store.Clear(ctx)
}

func (c *Client) sessionInfo(s session.Session) SessionInfo {
	info := SessionInfo{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}

	c.mu.RLock()
	u := c.user
	c.mu.RUnlock()
	if u != nil {
		info.UserID = u.ID
		info.UserEmail = u.Email
		return info
	}

	if claims, err := token.ParseSessionClaims(s.AccessToken); err == nil {
		info.UserID = claims.UserID()
		info.UserEmail = claims.Email
	}
	return info
}

// upsertProfile projects a provider user into the storefront profile
// repository. Failures degrade to logs and audit; the auth operation that
// triggered the projection is never failed by it.
func (c *Client) upsertProfile(ctx context.Context, user *User) {
	if c.profiles == nil || user == nil || user.ID == "" {
		return
	}

	record := ProfileRecord{UserID: user.ID, Email: user.Email}
	if name, ok := user.Metadata["full_name"].(string); ok {
		record.FullName = name
	}

	if err := c.profiles.Upsert(ctx, record); err != nil {
		c.log.Warn().Err(err).Str("user_id", user.ID).Msg("profile upsert failed")
		c.metricInc(MetricProfileUpsertFailed)
		c.emitAudit(ctx, auditEventProfileUpsertFailure, false, user.ID, "", "", err, nil)
	}
}

func (c *Client) accessToken(ctx context.Context) (string, bool) {
	s, ok := c.currentOrRestore(ctx)
	if !ok {
		return "", false
	}
	return s.AccessToken, true
}

func userIDOf(ps *ProviderSession) string {
	if ps == nil || ps.User == nil {
		return ""
	}
	return ps.User.ID
}

// wrapProvider tags a provider failure with the operation sentinel.
// Transport-level failures keep their own sentinel so callers can tell
// "wrong password" apart from "provider down".
func wrapProvider(sentinel, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrProviderUnsupported) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// refreshRejected reports whether the provider definitively rejected the
// refresh token, as opposed to being unreachable or failing internally.
func refreshRejected(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.HTTPStatus >= 400 && pe.HTTPStatus < 500
}
