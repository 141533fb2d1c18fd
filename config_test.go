package authkit

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "provider timeout negative",
			mutate: func(c *Config) {
				c.Provider.Timeout = -time.Second
			},
			wantValid: false,
		},
		{
			name: "storage prefix empty",
			mutate: func(c *Config) {
				c.Storage.KeyPrefix = ""
			},
			wantValid: false,
		},
		{
			name: "refresh window zero",
			mutate: func(c *Config) {
				c.Session.RefreshWindow = 0
			},
			wantValid: false,
		},
		{
			name: "refresh cooldown zero valid",
			mutate: func(c *Config) {
				c.Refresh.Cooldown = 0
			},
			wantValid: true,
		},
		{
			name: "refresh cooldown negative",
			mutate: func(c *Config) {
				c.Refresh.Cooldown = -time.Second
			},
			wantValid: false,
		},
		{
			name: "pkce settle delay negative",
			mutate: func(c *Config) {
				c.Pkce.SettleDelay = -time.Millisecond
			},
			wantValid: false,
		},
		{
			name: "pkce attempts zero",
			mutate: func(c *Config) {
				c.Pkce.MaxAttempts = 0
			},
			wantValid: false,
		},
		{
			name: "mfa issuer empty",
			mutate: func(c *Config) {
				c.Mfa.Issuer = ""
			},
			wantValid: false,
		},
		{
			name: "mfa digits eight valid",
			mutate: func(c *Config) {
				c.Mfa.Digits = 8
			},
			wantValid: true,
		},
		{
			name: "mfa digits seven invalid",
			mutate: func(c *Config) {
				c.Mfa.Digits = 7
			},
			wantValid: false,
		},
		{
			name: "mfa algorithm valid",
			mutate: func(c *Config) {
				c.Mfa.Algorithm = "SHA512"
			},
			wantValid: true,
		},
		{
			name: "mfa algorithm invalid",
			mutate: func(c *Config) {
				c.Mfa.Algorithm = "MD5"
			},
			wantValid: false,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUTHKIT_PROVIDER_URL", "https://auth.shop.example.com")
	t.Setenv("AUTHKIT_PROVIDER_KEY", "anon-key-123")
	t.Setenv("AUTHKIT_REDIRECT_URL", "https://shop.example.com/auth/callback")
	t.Setenv("AUTHKIT_STORAGE_PREFIX", "shop-auth")
	t.Setenv("AUTHKIT_REFRESH_WINDOW", "2m")
	t.Setenv("AUTHKIT_REFRESH_COOLDOWN", "15s")
	t.Setenv("AUTHKIT_PKCE_MAX_ATTEMPTS", "5")
	t.Setenv("AUTHKIT_AUDIT_ENABLED", "true")
	t.Setenv("AUTHKIT_AUDIT_BUFFER", "64")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.Provider.BaseURL != "https://auth.shop.example.com" {
		t.Fatalf("provider url not applied: %s", cfg.Provider.BaseURL)
	}
	if cfg.Provider.APIKey != "anon-key-123" {
		t.Fatalf("provider key not applied: %s", cfg.Provider.APIKey)
	}
	if cfg.Storage.KeyPrefix != "shop-auth" {
		t.Fatalf("storage prefix not applied: %s", cfg.Storage.KeyPrefix)
	}
	if cfg.Session.RefreshWindow != 2*time.Minute {
		t.Fatalf("refresh window not applied: %v", cfg.Session.RefreshWindow)
	}
	if cfg.Refresh.Cooldown != 15*time.Second {
		t.Fatalf("cooldown not applied: %v", cfg.Refresh.Cooldown)
	}
	if cfg.Pkce.MaxAttempts != 5 {
		t.Fatalf("pkce attempts not applied: %d", cfg.Pkce.MaxAttempts)
	}
	if !cfg.Audit.Enabled || cfg.Audit.BufferSize != 64 {
		t.Fatalf("audit settings not applied: %+v", cfg.Audit)
	}

	// Untouched knobs keep their defaults.
	if cfg.Mfa.Issuer != "Storefront" || cfg.Mfa.Digits != 6 {
		t.Fatalf("expected default mfa settings, got %+v", cfg.Mfa)
	}
	if cfg.Pkce.SettleDelay != 50*time.Millisecond {
		t.Fatalf("expected default settle delay, got %v", cfg.Pkce.SettleDelay)
	}
}

func TestConfigFromEnvRejectsInvalid(t *testing.T) {
	t.Setenv("AUTHKIT_PKCE_MAX_ATTEMPTS", "0")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected validation failure for zero pkce attempts")
	}
}
