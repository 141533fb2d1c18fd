package credstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*Redis, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedis(rdb, "sf")
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisRoundTrip(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok || value != "v" {
		t.Fatalf("expected v, got %q ok=%v", value, ok)
	}
}

func TestRedisAbsentKey(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()

	_, ok, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("absent key must not error: %v", err)
	}
	if ok {
		t.Fatalf("expected absent key")
	}
}

func TestRedisRemoveIdempotent(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("first remove failed: %v", err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected key gone after remove")
	}
}

func TestRedisKeysAreNamespaced(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "token", "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !mr.Exists("sf:token") {
		t.Fatalf("expected prefixed key sf:token, have %v", mr.Keys())
	}
}

func TestRedisBackendFailureWrapsSentinel(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	mr.Close()

	if _, _, err := store.Get(ctx, "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable sentinel from get, got %v", err)
	}
	if err := store.Set(ctx, "k", "v"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable sentinel from set, got %v", err)
	}
	if err := store.Remove(ctx, "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable sentinel from remove, got %v", err)
	}
}
