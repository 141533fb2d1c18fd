package authkit

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/cartsmith/authkit/internal/pkce"
	"github.com/cartsmith/authkit/session"
)

// Builder defines a public type used by authkit APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	creds    CredentialStore
	provider IdentityProvider
	profiles ProfileRepository

	auditSink AuditSink
	logger    *zerolog.Logger
	fallback  *pkce.Fallback

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithCredentialStore describes the withcredentialstore operation and its observable behavior.
//
// WithCredentialStore may return an error when input validation, dependency calls, or security checks fail.
// WithCredentialStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.creds = store
	return b
}

// WithProvider describes the withprovider operation and its observable behavior.
//
// WithProvider may return an error when input validation, dependency calls, or security checks fail.
// WithProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithProfileRepository describes the withprofilerepository operation and its observable behavior.
//
// WithProfileRepository may return an error when input validation, dependency calls, or security checks fail.
// WithProfileRepository does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithProfileRepository(repo ProfileRepository) *Builder {
	b.profiles = repo
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.logger = &log
	return b
}

// WithVerifierFallback describes the withverifierfallback operation and its observable behavior.
//
// WithVerifierFallback may return an error when input validation, dependency calls, or security checks fail.
// WithVerifierFallback does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithVerifierFallback(f *pkce.Fallback) *Builder {
	b.fallback = f
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.creds == nil {
		return nil, errors.New("credential store required")
	}

	if b.provider == nil {
		return nil, errors.New("identity provider required")
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}

	metrics := NewMetrics(cfg.Metrics)

	// -------- SESSION STORE --------
	store := session.NewStore(b.creds, session.Config{
		KeyPrefix:     cfg.Storage.KeyPrefix,
		RefreshWindow: cfg.Session.RefreshWindow,
		Logger:        logger,
		OnDegraded: func() {
			metrics.Inc(MetricStorageSwallowed)
		},
	})

	// -------- PKCE VAULT --------
	fallback := b.fallback
	if fallback == nil {
		fallback = pkce.NewFallback()
	}

	vault := pkce.NewVault(b.creds, fallback, pkce.Config{
		StorageKey:  cfg.Storage.KeyPrefix + ".pkce-verifier",
		SettleDelay: cfg.Pkce.SettleDelay,
		MaxAttempts: cfg.Pkce.MaxAttempts,
		Logger:      logger,
		OnFallback: func() {
			metrics.Inc(MetricPkceFallback)
		},
	})

	client := &Client{
		config:   cfg,
		creds:    b.creds,
		provider: b.provider,
		profiles: b.profiles,
		store:    store,
		vault:    vault,
		metrics:  metrics,
		log:      logger,
	}

	client.gate = newRefreshGate(cfg.Refresh.Cooldown, store, logger)
	client.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true

	return client, nil
}
