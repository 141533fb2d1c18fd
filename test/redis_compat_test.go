//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cartsmith/authkit/credstore"
	"github.com/cartsmith/authkit/session"
)

// redisMode describes which Redis backend the compatibility suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes returns the set of Redis backends to test.
// miniredis is always available.
// Real Redis standalone is used when REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				return rdb, func() { _ = rdb.Close(); mr.Close() }
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				// Flush the test DB to avoid state leaking between runs.
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
			},
		})
	}

	return modes
}

func TestCredentialStoreCompat(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			ctx := context.Background()
			kv := credstore.NewRedis(rdb, "compat")

			if _, ok, err := kv.Get(ctx, "absent"); err != nil || ok {
				t.Fatalf("absent key: ok=%v err=%v", ok, err)
			}

			if err := kv.Set(ctx, "k", "v1"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if v, ok, err := kv.Get(ctx, "k"); err != nil || !ok || v != "v1" {
				t.Fatalf("get after set: %q ok=%v err=%v", v, ok, err)
			}

			if err := kv.Set(ctx, "k", "v2"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if v, _, _ := kv.Get(ctx, "k"); v != "v2" {
				t.Fatalf("overwrite not visible: %q", v)
			}

			if err := kv.Remove(ctx, "k"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if err := kv.Remove(ctx, "k"); err != nil {
				t.Fatalf("second remove must be a no-op: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, "k"); ok {
				t.Fatal("key survived remove")
			}
		})
	}
}

func TestSessionStoreCompat(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			ctx := context.Background()
			store := session.NewStore(credstore.NewRedis(rdb, "compat"), session.Config{Logger: zerolog.Nop()})

			sess := session.Session{
				AccessToken:  "at-compat",
				RefreshToken: "rt-compat",
				ExpiresAt:    time.Now().Add(30 * time.Minute),
			}
			store.Save(ctx, sess)

			got, ok := store.Load(ctx)
			if !ok || got.AccessToken != sess.AccessToken || got.RefreshToken != sess.RefreshToken {
				t.Fatalf("roundtrip failed: %+v ok=%v", got, ok)
			}
			if store.ShouldRefresh(got) {
				t.Fatal("session 30 minutes from expiry must not need refresh")
			}

			store.Clear(ctx)
			if _, ok := store.Load(ctx); ok {
				t.Fatal("session survived clear")
			}
		})
	}
}
