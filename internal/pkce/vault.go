package pkce

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// KV is the slice of the credential-store contract the vault needs.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

const (
	defaultStorageKey  = "sf-auth.pkce-verifier"
	defaultSettleDelay = 50 * time.Millisecond
	defaultMaxAttempts = 3
)

// Config carries the vault tunables. Zero values take defaults.
type Config struct {
	StorageKey  string
	SettleDelay time.Duration
	MaxAttempts int
	Logger      zerolog.Logger

	// OnFallback is invoked when durable verification exhausts all attempts
	// and only the in-process tier holds the verifier. Optional.
	OnFallback func()
}

// record is the durable serialization of one verifier.
type record struct {
	Verifier string    `json:"verifier"`
	StoredAt time.Time `json:"stored_at"`
}

// Vault persists one PKCE verifier in a durable store with write-verify
// semantics, mirrored into an injected process-scoped fallback.
type Vault struct {
	kv          KV
	fallback    *Fallback
	storageKey  string
	settleDelay time.Duration
	maxAttempts int
	log         zerolog.Logger
	onFallback  func()
}

// NewVault wires the vault. The fallback must be the composition root's
// process-scoped instance.
func NewVault(kv KV, fallback *Fallback, cfg Config) *Vault {
	if cfg.StorageKey == "" {
		cfg.StorageKey = defaultStorageKey
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	onFallback := cfg.OnFallback
	if onFallback == nil {
		onFallback = func() {}
	}
	return &Vault{
		kv:          kv,
		fallback:    fallback,
		storageKey:  cfg.StorageKey,
		settleDelay: cfg.SettleDelay,
		maxAttempts: cfg.MaxAttempts,
		log:         cfg.Logger,
		onFallback:  onFallback,
	}
}

// Store persists the verifier. Never fails: when the durable tier cannot be
// verified within the attempt budget, the in-process fallback still holds
// the verifier and the flow proceeds.
func (v *Vault) Store(ctx context.Context, verifier string) {
	rec := record{Verifier: verifier, StoredAt: time.Now().UTC()}
	payload, err := json.Marshal(rec)
	if err != nil {
		// Unreachable for this shape; guard anyway.
		v.fallback.set(verifier, rec.StoredAt)
		return
	}

	for attempt := 1; attempt <= v.maxAttempts; attempt++ {
		if err := v.kv.Set(ctx, v.storageKey, string(payload)); err != nil {
			v.log.Warn().Err(err).Int("attempt", attempt).Msg("verifier write failed")
			v.settle(ctx, attempt)
			continue
		}

		v.settle(ctx, attempt)

		if v.durableVerifier(ctx) == verifier {
			v.fallback.set(verifier, rec.StoredAt)
			return
		}
		v.log.Warn().Int("attempt", attempt).Msg("verifier read-back mismatch")
	}

	v.fallback.set(verifier, rec.StoredAt)
	v.onFallback()
	v.log.Warn().Msg("verifier held in process fallback only")
}

// Get returns the stored verifier, durable tier first, then the in-process
// fallback.
func (v *Vault) Get(ctx context.Context) (string, bool) {
	raw, ok, err := v.kv.Get(ctx, v.storageKey)
	if err != nil {
		v.log.Warn().Err(err).Msg("verifier read degraded")
	} else if ok {
		if verifier := decodeVerifier(raw); verifier != "" {
			return verifier, true
		}
	}
	return v.fallback.get()
}

// Clear removes the verifier from both tiers. Idempotent.
func (v *Vault) Clear(ctx context.Context) {
	if err := v.kv.Remove(ctx, v.storageKey); err != nil {
		v.log.Warn().Err(err).Msg("verifier remove degraded")
	}
	v.fallback.clear()
}

// settle waits for the eventually-consistent backend, scaling linearly with
// the attempt number.
func (v *Vault) settle(ctx context.Context, attempt int) {
	timer := time.NewTimer(time.Duration(attempt) * v.settleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (v *Vault) durableVerifier(ctx context.Context) string {
	raw, ok, err := v.kv.Get(ctx, v.storageKey)
	if err != nil || !ok {
		return ""
	}
	return decodeVerifier(raw)
}

// decodeVerifier accepts the JSON record or, for tolerance of foreign
// writers, a raw verifier string. Anything JSON-shaped that does not decode
// into a record yields absent rather than leaking serialized bytes.
func decodeVerifier(raw string) string {
	if len(raw) > 0 && raw[0] == '{' {
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err == nil {
			return rec.Verifier
		}
		return ""
	}
	return raw
}
