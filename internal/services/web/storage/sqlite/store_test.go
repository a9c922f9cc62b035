package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	webstorage "github.com/louisbranch/spabooking/internal/services/web/storage"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "web-cache.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return store, path
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenRunsMigrations(t *testing.T) {
	_, path := openStore(t)

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	var name string
	if err := sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'cache_entries'`).Scan(&name); err != nil {
		t.Fatalf("cache_entries table missing: %v", err)
	}
}

func TestOpenTwiceIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web-cache.db")
	for i := 0; i < 2; i++ {
		store, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close #%d: %v", i+1, err)
		}
	}
}

func TestCacheEntryRoundTrip(t *testing.T) {
	t.Parallel()
	store, _ := openStore(t)
	ctx := context.Background()

	refreshed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entry := webstorage.CacheEntry{
		Key:         "spas:public",
		Scope:       "catalog",
		Payload:     []byte(`[{"id":1}]`),
		RefreshedAt: refreshed,
		ExpiresAt:   refreshed.Add(time.Minute),
	}
	if err := store.PutCacheEntry(ctx, entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.GetCacheEntry(ctx, "spas:public")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected entry")
	}
	if got.Scope != "catalog" || string(got.Payload) != `[{"id":1}]` {
		t.Fatalf("entry = %+v", got)
	}
	if !got.RefreshedAt.Equal(refreshed) || !got.ExpiresAt.Equal(refreshed.Add(time.Minute)) {
		t.Fatalf("times = %v / %v", got.RefreshedAt, got.ExpiresAt)
	}
	if !got.Fresh(refreshed.Add(30*time.Second)) || got.Fresh(refreshed.Add(2*time.Minute)) {
		t.Fatalf("unexpected freshness window for %+v", got)
	}

	entry.Payload = []byte(`[]`)
	if err := store.PutCacheEntry(ctx, entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _, err = store.GetCacheEntry(ctx, "spas:public")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if string(got.Payload) != `[]` {
		t.Fatalf("payload = %q, want []", got.Payload)
	}
}

func TestGetCacheEntryMissing(t *testing.T) {
	t.Parallel()
	store, _ := openStore(t)

	_, ok, err := store.GetCacheEntry(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestPutCacheEntryValidates(t *testing.T) {
	t.Parallel()
	store, _ := openStore(t)
	ctx := context.Background()

	if err := store.PutCacheEntry(ctx, webstorage.CacheEntry{Scope: "catalog"}); err == nil {
		t.Fatalf("expected key error")
	}
	if err := store.PutCacheEntry(ctx, webstorage.CacheEntry{Key: "k"}); err == nil {
		t.Fatalf("expected scope error")
	}
	if _, _, err := store.GetCacheEntry(ctx, ""); err == nil {
		t.Fatalf("expected key error on get")
	}
}

func TestDeleteScopeAndPurge(t *testing.T) {
	t.Parallel()
	store, _ := openStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	put := func(key, scope string, expires time.Time) {
		t.Helper()
		if err := store.PutCacheEntry(ctx, webstorage.CacheEntry{
			Key: key, Scope: scope, Payload: []byte(`{}`), RefreshedAt: now, ExpiresAt: expires,
		}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	put("a", "catalog", now.Add(time.Hour))
	put("b", "catalog", now.Add(-time.Hour))
	put("c", "search", now.Add(-time.Hour))

	purged, err := store.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 2 {
		t.Fatalf("purged = %d, want 2", purged)
	}

	if err := store.DeleteScope(ctx, "catalog"); err != nil {
		t.Fatalf("delete scope: %v", err)
	}
	if _, ok, _ := store.GetCacheEntry(ctx, "a"); ok {
		t.Fatalf("expected scope delete to drop a")
	}
}

func TestNilStore(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil: %v", err)
	}
	if _, _, err := store.GetCacheEntry(context.Background(), "k"); err == nil {
		t.Fatalf("expected error from nil store")
	}
}
