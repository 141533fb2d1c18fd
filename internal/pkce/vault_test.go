package pkce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// flakyKV drops the first failWrites Set calls and can refuse all reads.
type flakyKV struct {
	values     map[string]string
	failWrites int
	failReads  bool
	setCalls   int
}

func newFlakyKV() *flakyKV {
	return &flakyKV{values: make(map[string]string)}
}

func (f *flakyKV) Get(_ context.Context, key string) (string, bool, error) {
	if f.failReads {
		return "", false, errors.New("backend down")
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *flakyKV) Set(_ context.Context, key, value string) error {
	f.setCalls++
	if f.setCalls <= f.failWrites {
		return errors.New("backend down")
	}
	f.values[key] = value
	return nil
}

func (f *flakyKV) Remove(_ context.Context, key string) error {
	delete(f.values, key)
	return nil
}

func newVaultTest(t *testing.T, kv KV, onFallback func()) *Vault {
	t.Helper()
	return NewVault(kv, NewFallback(), Config{
		SettleDelay: time.Millisecond,
		Logger:      zerolog.Nop(),
		OnFallback:  onFallback,
	})
}

func TestStoreThenGet(t *testing.T) {
	kv := newFlakyKV()
	vault := newVaultTest(t, kv, nil)
	ctx := context.Background()

	vault.Store(ctx, "verifier-1")

	got, ok := vault.Get(ctx)
	if !ok || got != "verifier-1" {
		t.Fatalf("expected verifier-1, got %q ok=%v", got, ok)
	}
}

func TestStoreRetriesPastTransientWriteFailure(t *testing.T) {
	kv := newFlakyKV()
	kv.failWrites = 1
	fallbacks := 0
	vault := newVaultTest(t, kv, func() { fallbacks++ })
	ctx := context.Background()

	vault.Store(ctx, "verifier-1")

	if kv.setCalls != 2 {
		t.Fatalf("expected 2 write attempts, got %d", kv.setCalls)
	}
	if fallbacks != 0 {
		t.Fatalf("durable store succeeded, fallback hook must not fire")
	}
	if got, ok := vault.Get(ctx); !ok || got != "verifier-1" {
		t.Fatalf("expected verifier-1, got %q ok=%v", got, ok)
	}
}

func TestStoreBoundedAttemptsThenFallback(t *testing.T) {
	kv := newFlakyKV()
	kv.failWrites = 100
	fallbacks := 0
	vault := newVaultTest(t, kv, func() { fallbacks++ })
	ctx := context.Background()

	vault.Store(ctx, "verifier-1")

	if kv.setCalls != defaultMaxAttempts {
		t.Fatalf("expected %d bounded attempts, got %d", defaultMaxAttempts, kv.setCalls)
	}
	if fallbacks != 1 {
		t.Fatalf("expected fallback hook once, got %d", fallbacks)
	}

	// Durable tier is empty, the in-process tier still answers.
	got, ok := vault.Get(ctx)
	if !ok || got != "verifier-1" {
		t.Fatalf("expected fallback verifier, got %q ok=%v", got, ok)
	}
}

func TestGetPrefersDurableTier(t *testing.T) {
	kv := newFlakyKV()
	vault := newVaultTest(t, kv, nil)
	ctx := context.Background()

	vault.Store(ctx, "old-verifier")
	// A later navigation in another tab overwrote the durable record.
	kv.values[vault.storageKey] = `{"verifier":"new-verifier","stored_at":"2026-01-01T00:00:00Z"}`

	if got, _ := vault.Get(ctx); got != "new-verifier" {
		t.Fatalf("expected durable tier to win, got %q", got)
	}
}

func TestGetSurvivesDurableLoss(t *testing.T) {
	kv := newFlakyKV()
	vault := newVaultTest(t, kv, nil)
	ctx := context.Background()

	vault.Store(ctx, "verifier-1")
	delete(kv.values, vault.storageKey)

	if got, ok := vault.Get(ctx); !ok || got != "verifier-1" {
		t.Fatalf("expected fallback to answer, got %q ok=%v", got, ok)
	}
}

func TestGetReadsForeignRawValue(t *testing.T) {
	kv := newFlakyKV()
	vault := newVaultTest(t, kv, nil)
	ctx := context.Background()

	kv.values[vault.storageKey] = "bare-verifier"

	if got, ok := vault.Get(ctx); !ok || got != "bare-verifier" {
		t.Fatalf("expected raw value accepted, got %q ok=%v", got, ok)
	}
}

func TestClearEmptiesBothTiers(t *testing.T) {
	kv := newFlakyKV()
	vault := newVaultTest(t, kv, nil)
	ctx := context.Background()

	vault.Store(ctx, "verifier-1")
	vault.Clear(ctx)
	vault.Clear(ctx)

	if _, ok := vault.Get(ctx); ok {
		t.Fatalf("expected no verifier after clear")
	}
}

func TestGetFallsBackWhenReadsDegrade(t *testing.T) {
	kv := newFlakyKV()
	vault := newVaultTest(t, kv, nil)
	ctx := context.Background()

	vault.Store(ctx, "verifier-1")
	kv.failReads = true

	if got, ok := vault.Get(ctx); !ok || got != "verifier-1" {
		t.Fatalf("expected fallback on degraded reads, got %q ok=%v", got, ok)
	}
}
