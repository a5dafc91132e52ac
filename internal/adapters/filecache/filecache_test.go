package filecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSetGetRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	payload := []byte(`{"nodes":{},"edges":[]}`)
	if err := store.Set(ctx, "graph_41.39_2.17_18000", payload, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "graph_41.39_2.17_18000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload mismatch: got %s", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(context.Background(), "graph_0_0_0")
	if err != nil {
		t.Fatalf("miss should not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil payload on miss, got %q", got)
	}
}

func TestDelete(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "coords_berlin_germany", []byte(`{"lat":52.52}`), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, "coords_berlin_germany"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := store.Get(ctx, "coords_berlin_germany"); got != nil {
		t.Errorf("expected miss after delete, got %q", got)
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, "coords_berlin_germany"); err != nil {
		t.Errorf("double delete should not error: %v", err)
	}
}

func TestKeysWithPlaceNames(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	// Lowercased place keys carry spaces; hostile separators must not escape
	// the cache directory.
	keys := []string{
		"coords_new york_usa",
		"coords_a/b_c",
	}
	for _, key := range keys {
		if err := store.Set(ctx, key, []byte(`{}`), 0); err != nil {
			t.Fatalf("set %q: %v", key, err)
		}
		got, err := store.Get(ctx, key)
		if err != nil || got == nil {
			t.Errorf("round trip failed for %q: %v", key, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.IsDir() {
			t.Errorf("cache entry escaped into subdirectory %q", e.Name())
		}
		if filepath.Ext(e.Name()) != ".json" {
			t.Errorf("unexpected cache file %q", e.Name())
		}
	}
}

func TestOverwrite(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	key := "water_41.39_2.17_18000_natural=bay,strait,water;waterway=riverbank"
	if err := store.Set(ctx, key, []byte(`old`), 0); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, key, []byte(`new`), 0); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("expected overwrite, got %q", got)
	}
}
