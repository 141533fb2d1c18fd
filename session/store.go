package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// KV is the slice of the credential-store contract this package needs.
// Absence is a normal outcome, distinct from a backend error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

const (
	accessTokenSuffix  = "access-token"
	refreshTokenSuffix = "refresh-token"
	expiresAtSuffix    = "expires-at"

	defaultKeyPrefix     = "sf-auth"
	defaultRefreshWindow = 5 * time.Minute
)

// Config defines a public type used by authkit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// KeyPrefix namespaces the three session keys. Defaults to "sf-auth".
	KeyPrefix string

	// RefreshWindow is the time-to-expiry below which ShouldRefresh reports
	// true. Defaults to 5 minutes.
	RefreshWindow time.Duration

	Logger zerolog.Logger

	// OnDegraded is invoked once per swallowed storage error. Optional.
	OnDegraded func()
}

// Store persists one session as three keys in a credential store and owns
// the swallow-and-degrade policy for storage failures.
type Store struct {
	kv      KV
	prefix  string
	window  time.Duration
	log     zerolog.Logger
	degrade func()
}

// NewStore describes the newstore operation and its observable behavior.
//
// NewStore applies defaults for zero-valued config fields and performs no I/O.
func NewStore(kv KV, cfg Config) *Store {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.RefreshWindow <= 0 {
		cfg.RefreshWindow = defaultRefreshWindow
	}
	degrade := cfg.OnDegraded
	if degrade == nil {
		degrade = func() {}
	}
	return &Store{
		kv:      kv,
		prefix:  cfg.KeyPrefix,
		window:  cfg.RefreshWindow,
		log:     cfg.Logger,
		degrade: degrade,
	}
}

func (s *Store) key(suffix string) string {
	return s.prefix + "." + suffix
}

// Load reads the three session keys. It returns ok=false when any required
// token is missing or when the backend fails; absence and degradation look
// identical to the caller.
func (s *Store) Load(ctx context.Context) (Session, bool) {
	access, ok := s.get(ctx, accessTokenSuffix)
	if !ok {
		return Session{}, false
	}
	refresh, ok := s.get(ctx, refreshTokenSuffix)
	if !ok {
		return Session{}, false
	}

	sess := Session{AccessToken: access, RefreshToken: refresh}

	if raw, ok := s.get(ctx, expiresAtSuffix); ok {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.log.Debug().Str("value", raw).Msg("session expiry unparseable, treating as unknown")
		} else {
			sess.ExpiresAt = at
		}
	}

	if !sess.Valid() {
		return Session{}, false
	}
	return sess, true
}

// Save writes the three session keys. Storage errors are logged and
// swallowed; a partially persisted session reads back as absent. Invalid
// sessions are ignored so a half-session can never be written deliberately.
func (s *Store) Save(ctx context.Context, sess Session) {
	if !sess.Valid() {
		s.log.Warn().Msg("refusing to persist session with missing token")
		return
	}

	s.set(ctx, accessTokenSuffix, sess.AccessToken)
	s.set(ctx, refreshTokenSuffix, sess.RefreshToken)

	if sess.ExpiresAt.IsZero() {
		s.remove(ctx, expiresAtSuffix)
		return
	}
	s.set(ctx, expiresAtSuffix, sess.ExpiresAt.UTC().Format(time.RFC3339))
}

// Clear removes the three session keys. Idempotent; storage errors are
// logged and swallowed.
func (s *Store) Clear(ctx context.Context) {
	s.remove(ctx, accessTokenSuffix)
	s.remove(ctx, refreshTokenSuffix)
	s.remove(ctx, expiresAtSuffix)
}

// ShouldRefresh reports whether the session's access token is close enough
// to expiry to warrant a refresh. Absent sessions and unknown expiries
// always report true.
func (s *Store) ShouldRefresh(sess Session) bool {
	if !sess.Valid() {
		return true
	}
	return sess.ExpiresWithin(s.window)
}

func (s *Store) get(ctx context.Context, suffix string) (string, bool) {
	key := s.key(suffix)
	value, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("session read degraded")
		s.degrade()
		return "", false
	}
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (s *Store) set(ctx context.Context, suffix, value string) {
	key := s.key(suffix)
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("session write degraded")
		s.degrade()
	}
}

func (s *Store) remove(ctx context.Context, suffix string) {
	key := s.key(suffix)
	if err := s.kv.Remove(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("session remove degraded")
		s.degrade()
	}
}
