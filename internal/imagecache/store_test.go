package imagecache_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"proxyforge/internal/imagecache"
)

func openStore(t *testing.T, opts ...imagecache.StoreOption) *imagecache.Store {
	t.Helper()
	store, err := imagecache.Open(filepath.Join(t.TempDir(), "images.db"), opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSetThenGetRoundtrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	blob := []byte("fake image bytes")
	if err := store.Set(ctx, "https://cards.example/bolt.jpg", blob); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	handle, err := store.Get(ctx, "https://cards.example/bolt.jpg")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if handle == nil {
		t.Fatal("expected cache hit")
	}
	defer handle.Release()

	if !bytes.Equal(handle.Bytes(), blob) {
		t.Fatalf("blob mismatch: %q", handle.Bytes())
	}
}

func TestGetMiss(t *testing.T) {
	store := openStore(t)
	handle, err := store.Get(context.Background(), "https://cards.example/absent.jpg")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if handle != nil {
		t.Fatal("expected miss")
	}
}

func TestSetOverwrites(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	url := "https://cards.example/bolt.jpg"

	if err := store.Set(ctx, url, []byte("old")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, url, []byte("new")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	handle, err := store.Get(ctx, url)
	if err != nil || handle == nil {
		t.Fatalf("Get failed: %v, %v", handle, err)
	}
	defer handle.Release()
	if string(handle.Bytes()) != "new" {
		t.Fatalf("expected overwrite, got %q", handle.Bytes())
	}
}

func TestExpiredEntryIsMissAndPurged(t *testing.T) {
	current := time.Now()
	store := openStore(t, imagecache.WithClock(func() time.Time { return current }))
	ctx := context.Background()
	url := "https://cards.example/old.jpg"

	if err := store.Set(ctx, url, []byte("stale")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Advance past the TTL; the entry must read as a miss and be removed.
	current = current.Add(imagecache.DefaultTTL + time.Hour)
	handle, err := store.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if handle != nil {
		t.Fatal("expired entry must be a miss")
	}

	count, _, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired entry should have been purged, %d entries remain", count)
	}
}

func TestFreshEntrySurvivesWithinTTL(t *testing.T) {
	current := time.Now()
	store := openStore(t, imagecache.WithClock(func() time.Time { return current }))
	ctx := context.Background()
	url := "https://cards.example/fresh.jpg"

	if err := store.Set(ctx, url, []byte("fresh")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	current = current.Add(imagecache.DefaultTTL - time.Hour)
	handle, err := store.Get(ctx, url)
	if err != nil || handle == nil {
		t.Fatalf("expected hit within TTL: %v, %v", handle, err)
	}
	handle.Release()
}

func TestDeleteAndClear(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, url := range []string{"https://a.example/1.jpg", "https://a.example/2.jpg"} {
		if err := store.Set(ctx, url, []byte(url)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := store.Delete(ctx, "https://a.example/1.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if handle, _ := store.Get(ctx, "https://a.example/1.jpg"); handle != nil {
		t.Fatal("deleted entry still present")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	count, size, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if count != 0 || size != 0 {
		t.Fatalf("expected empty cache, got count=%d size=%d", count, size)
	}
}

func TestPruneSweepsExpired(t *testing.T) {
	current := time.Now()
	store := openStore(t, imagecache.WithClock(func() time.Time { return current }))
	ctx := context.Background()

	if err := store.Set(ctx, "https://a.example/old.jpg", []byte("old")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	current = current.Add(imagecache.DefaultTTL + time.Hour)
	if err := store.Set(ctx, "https://a.example/new.jpg", []byte("new")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	removed, err := store.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", removed)
	}
	count, _, _ := store.Stats(ctx)
	if count != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", count)
	}
}

func TestHandleMaterializeAndRelease(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	url := "https://cards.example/bolt.jpg"

	if err := store.Set(ctx, url, []byte("image")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	handle, err := store.Get(ctx, url)
	if err != nil || handle == nil {
		t.Fatalf("Get failed: %v, %v", handle, err)
	}

	path, err := handle.Path()
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read materialized file: %v", err)
	}
	if string(data) != "image" {
		t.Fatalf("unexpected file contents: %q", data)
	}

	// Path is stable across calls.
	again, err := handle.Path()
	if err != nil || again != path {
		t.Fatalf("expected stable path, got %q, %v", again, err)
	}

	handle.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("release must remove the temp file, stat err: %v", err)
	}
	if _, err := handle.Path(); err == nil {
		t.Fatal("Path after Release must fail")
	}
	handle.Release() // idempotent
}

func TestReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.db")
	store, err := imagecache.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Set(context.Background(), "https://a.example/1.jpg", []byte("persisted")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	store.Close()

	reopened, err := imagecache.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	handle, err := reopened.Get(context.Background(), "https://a.example/1.jpg")
	if err != nil || handle == nil {
		t.Fatalf("entry did not survive reopen: %v, %v", handle, err)
	}
	handle.Release()
}
