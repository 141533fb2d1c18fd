package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeKV struct {
	values map[string]string

	failGet    bool
	failSet    bool
	failRemove bool

	getCalls    int
	setCalls    int
	removeCalls int
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.getCalls++
	if f.failGet {
		return "", false, errors.New("backend down")
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.setCalls++
	if f.failSet {
		return errors.New("backend down")
	}
	f.values[key] = value
	return nil
}

func (f *fakeKV) Remove(_ context.Context, key string) error {
	f.removeCalls++
	if f.failRemove {
		return errors.New("backend down")
	}
	delete(f.values, key)
	return nil
}

func newStoreTest(t *testing.T) (*Store, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	store := NewStore(kv, Config{Logger: zerolog.Nop()})
	return store, kv
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	in := Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	store.Save(ctx, in)

	out, ok := store.Load(ctx)
	if !ok {
		t.Fatalf("expected session after save")
	}
	if out.AccessToken != in.AccessToken || out.RefreshToken != in.RefreshToken {
		t.Fatalf("token round trip mismatch: got %+v", out)
	}
	if !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Fatalf("expected expiry %v, got %v", in.ExpiresAt, out.ExpiresAt)
	}
}

func TestLoadAbsentWhenTokenMissing(t *testing.T) {
	store, kv := newStoreTest(t)
	ctx := context.Background()

	kv.values[store.key(accessTokenSuffix)] = "access-only"

	if _, ok := store.Load(ctx); ok {
		t.Fatalf("expected absent session when refresh token missing")
	}
}

func TestSaveRefusesInvalidSession(t *testing.T) {
	store, kv := newStoreTest(t)
	ctx := context.Background()

	store.Save(ctx, Session{AccessToken: "only-access"})

	if kv.setCalls != 0 {
		t.Fatalf("expected no writes for invalid session, got %d", kv.setCalls)
	}
}

func TestSaveWithoutExpiryRemovesStaleExpiryKey(t *testing.T) {
	store, kv := newStoreTest(t)
	ctx := context.Background()

	kv.values[store.key(expiresAtSuffix)] = time.Now().Format(time.RFC3339)
	store.Save(ctx, Session{AccessToken: "a", RefreshToken: "r"})

	if _, ok := kv.values[store.key(expiresAtSuffix)]; ok {
		t.Fatalf("expected stale expiry key removed")
	}

	out, ok := store.Load(ctx)
	if !ok {
		t.Fatalf("load after save failed")
	}
	if !out.ExpiresAt.IsZero() {
		t.Fatalf("expected unknown expiry, got %v", out.ExpiresAt)
	}
}

func TestLoadTreatsUnparseableExpiryAsUnknown(t *testing.T) {
	store, kv := newStoreTest(t)
	ctx := context.Background()

	store.Save(ctx, Session{AccessToken: "a", RefreshToken: "r"})
	kv.values[store.key(expiresAtSuffix)] = "not-a-timestamp"

	out, ok := store.Load(ctx)
	if !ok {
		t.Fatalf("expected session despite bad expiry value")
	}
	if !out.ExpiresAt.IsZero() {
		t.Fatalf("expected zero expiry, got %v", out.ExpiresAt)
	}
}

func TestClearIdempotent(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	store.Save(ctx, Session{AccessToken: "a", RefreshToken: "r"})
	store.Clear(ctx)
	store.Clear(ctx)

	if _, ok := store.Load(ctx); ok {
		t.Fatalf("expected absent session after clear")
	}
}

func TestShouldRefreshWindows(t *testing.T) {
	store, _ := newStoreTest(t)

	if !store.ShouldRefresh(Session{}) {
		t.Fatalf("absent session must require refresh")
	}
	if !store.ShouldRefresh(Session{AccessToken: "a", RefreshToken: "r"}) {
		t.Fatalf("unknown expiry must require refresh")
	}

	fresh := Session{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(10 * time.Minute)}
	if store.ShouldRefresh(fresh) {
		t.Fatalf("session with 10m left must not require refresh")
	}

	stale := Session{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(4 * time.Minute)}
	if !store.ShouldRefresh(stale) {
		t.Fatalf("session with 4m left must require refresh")
	}
}
