package authkit

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config defines a public type used by authkit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Provider ProviderConfig
	Storage  StorageConfig
	Session  SessionConfig
	Refresh  RefreshConfig
	Pkce     PkceConfig
	Mfa      MfaConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig defines a public type used by authkit APIs.
//
// ProviderConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ProviderConfig struct {
	BaseURL     string
	APIKey      string
	RedirectURL string
	Timeout     time.Duration
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig defines a public type used by authkit APIs.
//
// StorageConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StorageConfig struct {
	KeyPrefix string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by authkit APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RefreshWindow time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig defines a public type used by authkit APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	Cooldown time.Duration
}

/*
====================================
PKCE CONFIG
====================================
*/

// PkceConfig defines a public type used by authkit APIs.
//
// PkceConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PkceConfig struct {
	SettleDelay time.Duration
	MaxAttempts int
}

/*
====================================
MFA CONFIG
====================================
*/

// MfaConfig defines a public type used by authkit APIs.
//
// MfaConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MfaConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by authkit APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authkit APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the documented defaults. Callers overlay their own
// values before handing the result to a builder.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			KeyPrefix: "sf-auth",
		},
		Session: SessionConfig{
			RefreshWindow: 5 * time.Minute,
		},
		Refresh: RefreshConfig{
			Cooldown: 10 * time.Second,
		},
		Pkce: PkceConfig{
			SettleDelay: 50 * time.Millisecond,
			MaxAttempts: 3,
		},
		Mfa: MfaConfig{
			Issuer:    "Storefront",
			Digits:    6,
			Period:    30,
			Algorithm: "SHA1",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
ENV CONFIG
====================================
*/

type envConfig struct {
	ProviderURL     string        `env:"AUTHKIT_PROVIDER_URL"`
	ProviderKey     string        `env:"AUTHKIT_PROVIDER_KEY"`
	RedirectURL     string        `env:"AUTHKIT_REDIRECT_URL"`
	ProviderTimeout time.Duration `env:"AUTHKIT_PROVIDER_TIMEOUT" envDefault:"10s"`

	StoragePrefix string `env:"AUTHKIT_STORAGE_PREFIX" envDefault:"sf-auth"`

	RefreshWindow   time.Duration `env:"AUTHKIT_REFRESH_WINDOW" envDefault:"5m"`
	RefreshCooldown time.Duration `env:"AUTHKIT_REFRESH_COOLDOWN" envDefault:"10s"`

	PkceSettleDelay time.Duration `env:"AUTHKIT_PKCE_SETTLE_DELAY" envDefault:"50ms"`
	PkceMaxAttempts int           `env:"AUTHKIT_PKCE_MAX_ATTEMPTS" envDefault:"3"`

	MfaIssuer string `env:"AUTHKIT_MFA_ISSUER" envDefault:"Storefront"`

	AuditEnabled    bool `env:"AUTHKIT_AUDIT_ENABLED" envDefault:"false"`
	AuditBufferSize int  `env:"AUTHKIT_AUDIT_BUFFER" envDefault:"1024"`

	MetricsEnabled bool `env:"AUTHKIT_METRICS_ENABLED" envDefault:"false"`
}

// ConfigFromEnv builds a Config from AUTHKIT_* environment variables on top
// of the defaults. A .env file in the working directory is loaded
// best-effort first.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	var e envConfig
	if err := env.Parse(&e); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	cfg.Provider.BaseURL = e.ProviderURL
	cfg.Provider.APIKey = e.ProviderKey
	cfg.Provider.RedirectURL = e.RedirectURL
	cfg.Provider.Timeout = e.ProviderTimeout
	cfg.Storage.KeyPrefix = e.StoragePrefix
	cfg.Session.RefreshWindow = e.RefreshWindow
	cfg.Refresh.Cooldown = e.RefreshCooldown
	cfg.Pkce.SettleDelay = e.PkceSettleDelay
	cfg.Pkce.MaxAttempts = e.PkceMaxAttempts
	cfg.Mfa.Issuer = e.MfaIssuer
	cfg.Audit.Enabled = e.AuditEnabled
	cfg.Audit.BufferSize = e.AuditBufferSize
	cfg.Metrics.Enabled = e.MetricsEnabled

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Provider
	if c.Provider.Timeout < 0 {
		return errors.New("Provider Timeout must be >= 0")
	}

	// Storage
	if c.Storage.KeyPrefix == "" {
		return errors.New("Storage KeyPrefix must not be empty")
	}

	// Session
	if c.Session.RefreshWindow <= 0 {
		return errors.New("Session RefreshWindow must be > 0")
	}

	// Refresh
	if c.Refresh.Cooldown < 0 {
		return errors.New("Refresh Cooldown must be >= 0")
	}

	// Pkce
	if c.Pkce.SettleDelay < 0 {
		return errors.New("Pkce SettleDelay must be >= 0")
	}
	if c.Pkce.MaxAttempts < 1 {
		return errors.New("Pkce MaxAttempts must be >= 1")
	}

	// Mfa
	if c.Mfa.Issuer == "" {
		return errors.New("Mfa Issuer must not be empty")
	}
	if c.Mfa.Digits != 6 && c.Mfa.Digits != 8 {
		return errors.New("Mfa Digits must be 6 or 8")
	}
	if c.Mfa.Period <= 0 {
		return errors.New("Mfa Period must be > 0")
	}
	if c.Mfa.Algorithm != "SHA1" && c.Mfa.Algorithm != "SHA256" && c.Mfa.Algorithm != "SHA512" {
		return errors.New("unsupported Mfa Algorithm")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
