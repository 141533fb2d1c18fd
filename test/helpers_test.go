//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/cartsmith/authkit"
)

var errIntegrationUnused = errors.New("provider method not under test")

// newIntegrationRedis returns a Redis client backed by miniredis, or by a
// real server when REDIS_ADDR is set.
func newIntegrationRedis(t *testing.T) (redis.UniversalClient, func()) {
	t.Helper()

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			t.Skipf("cannot connect to Redis at %s: %v", addr, err)
		}
		rdb.FlushDB(context.Background())
		return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, func() { _ = rdb.Close(); mr.Close() }
}

// scriptedProvider satisfies authkit.IdentityProvider with a scripted
// refresh response. Every other operation fails loudly so a test can only
// exercise what it scripted.
type scriptedProvider struct {
	mu           sync.Mutex
	refreshed    *authkit.ProviderSession
	refreshErr   error
	refreshDelay time.Duration
	refreshCalls int
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCalls
}

func (p *scriptedProvider) Refresh(ctx context.Context, refreshToken string) (*authkit.ProviderSession, error) {
	p.mu.Lock()
	p.refreshCalls++
	delay := p.refreshDelay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return p.refreshed, nil
}

func (p *scriptedProvider) ActiveSession(ctx context.Context) (*authkit.ProviderSession, error) {
	return nil, nil
}

func (p *scriptedProvider) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

func (p *scriptedProvider) SignInWithPassword(ctx context.Context, email, password string) (*authkit.ProviderSession, error) {
	return nil, errIntegrationUnused
}

func (p *scriptedProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*authkit.ProviderSession, error) {
	return nil, errIntegrationUnused
}

func (p *scriptedProvider) OAuthAuthorizeURL(ctx context.Context, provider, redirectTo string) (*authkit.OAuthRedirect, error) {
	return nil, errIntegrationUnused
}

func (p *scriptedProvider) ExchangeCode(ctx context.Context, code, verifier string) (*authkit.ProviderSession, error) {
	return nil, errIntegrationUnused
}

func (p *scriptedProvider) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	return errIntegrationUnused
}

func (p *scriptedProvider) VerifyOTP(ctx context.Context, req authkit.OTPVerification) (*authkit.ProviderSession, error) {
	return nil, errIntegrationUnused
}

func (p *scriptedProvider) UpdateUser(ctx context.Context, accessToken string, update authkit.UserUpdate) (*authkit.User, error) {
	return nil, errIntegrationUnused
}

func (p *scriptedProvider) EnrollFactor(ctx context.Context, accessToken, friendlyName string) (*authkit.FactorProvision, error) {
	return nil, errIntegrationUnused
}

func (p *scriptedProvider) ChallengeFactor(ctx context.Context, accessToken, factorID string) (*authkit.MfaChallenge, error) {
	return nil, errIntegrationUnused
}

func (p *scriptedProvider) VerifyFactor(ctx context.Context, accessToken, factorID, challengeID, code string) (*authkit.ProviderSession, error) {
	return nil, errIntegrationUnused
}

func (p *scriptedProvider) UnenrollFactor(ctx context.Context, accessToken, factorID string) error {
	return errIntegrationUnused
}

func (p *scriptedProvider) ListFactors(ctx context.Context, accessToken string) ([]authkit.MfaFactor, error) {
	return nil, errIntegrationUnused
}

// newIntegrationClient builds a client over a Redis-backed credential store
// and the given provider.
func newIntegrationClient(t *testing.T, kv authkit.CredentialStore, provider authkit.IdentityProvider, mutate func(*authkit.Config)) *authkit.Client {
	t.Helper()

	cfg := authkit.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := authkit.New().
		WithConfig(cfg).
		WithCredentialStore(kv).
		WithProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

// signAccess mints an HS256 access token carrying the claims the client
// projects into session info.
func signAccess(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("integration-test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// seedStoredSession writes the three session keys the way a previous process
// would have left them.
func seedStoredSession(t *testing.T, kv authkit.CredentialStore, access, refresh string, expiresAt time.Time) {
	t.Helper()

	ctx := context.Background()
	for key, value := range map[string]string{
		"sf-auth.access-token":  access,
		"sf-auth.refresh-token": refresh,
		"sf-auth.expires-at":    expiresAt.UTC().Format(time.RFC3339),
	} {
		if err := kv.Set(ctx, key, value); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
}
