//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cartsmith/authkit"
	"github.com/cartsmith/authkit/credstore"
)

func TestRefreshRaceSingleProviderCall(t *testing.T) {
	ctx := context.Background()
	rdb, cleanup := newIntegrationRedis(t)
	defer cleanup()

	kv := credstore.NewRedis(rdb, "it")

	oldAccess := signAccess(t, "u1", "race@example.com", time.Now().Add(2*time.Minute))
	newAccess := signAccess(t, "u1", "race@example.com", time.Now().Add(time.Hour))
	seedStoredSession(t, kv, oldAccess, "rt-old", time.Now().Add(2*time.Minute))

	provider := &scriptedProvider{
		refreshDelay: 100 * time.Millisecond,
		refreshed: &authkit.ProviderSession{
			Session: authkit.Session{
				AccessToken:  newAccess,
				RefreshToken: "rt-new",
				ExpiresAt:    time.Now().Add(time.Hour),
			},
		},
	}

	client := newIntegrationClient(t, kv, provider, nil)

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	type outcome struct {
		info *authkit.SessionInfo
		err  error
	}
	results := make(chan outcome, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			info, err := client.RefreshSession(ctx)
			results <- outcome{info: info, err: err}
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	winners := 0
	for res := range results {
		if res.err != nil {
			t.Fatalf("unexpected refresh error: %v", res.err)
		}
		if res.info == nil {
			t.Fatal("refresh returned no session info")
		}
		if res.info.RefreshToken == "rt-new" {
			winners++
		}
	}

	if got := provider.calls(); got != 1 {
		t.Fatalf("expected exactly one provider refresh, got %d", got)
	}
	if winners == 0 {
		t.Fatal("no caller observed the rotated session")
	}

	// The rotation must have been persisted for the next process.
	stored, ok, err := kv.Get(ctx, "sf-auth.refresh-token")
	if err != nil || !ok {
		t.Fatalf("stored refresh token unreadable: ok=%v err=%v", ok, err)
	}
	if stored != "rt-new" {
		t.Fatalf("store still holds %q after rotation", stored)
	}
}

func TestRefreshCooldownSuppressesSecondRound(t *testing.T) {
	ctx := context.Background()
	rdb, cleanup := newIntegrationRedis(t)
	defer cleanup()

	kv := credstore.NewRedis(rdb, "it")

	access := signAccess(t, "u2", "cooldown@example.com", time.Now().Add(2*time.Minute))
	seedStoredSession(t, kv, access, "rt-1", time.Now().Add(2*time.Minute))

	provider := &scriptedProvider{
		refreshed: &authkit.ProviderSession{
			Session: authkit.Session{
				AccessToken:  signAccess(t, "u2", "cooldown@example.com", time.Now().Add(time.Hour)),
				RefreshToken: "rt-2",
				ExpiresAt:    time.Now().Add(time.Hour),
			},
		},
	}

	client := newIntegrationClient(t, kv, provider, nil)

	if _, err := client.RefreshSession(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// Inside the default 10s cooldown the second call must not reach the
	// provider and must still hand back the current session.
	info, err := client.RefreshSession(ctx)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if info == nil || info.RefreshToken != "rt-2" {
		t.Fatalf("expected current session back, got %+v", info)
	}
	if got := provider.calls(); got != 1 {
		t.Fatalf("cooldown breached: %d provider calls", got)
	}
}
