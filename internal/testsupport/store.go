package testsupport

import (
	"context"
	"testing"
	"time"

	"sceneforge/internal/scenes"
)

// MustOpenStore opens a scene store for tests and registers cleanup.
func MustOpenStore(t testing.TB) *scenes.Store {
	t.Helper()

	store, err := scenes.Open()
	if err != nil {
		t.Fatalf("scenes.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedScene inserts a single scene with the given ID and text, returning it.
func SeedScene(t testing.TB, store *scenes.Store, id int64, text, imageRef string) scenes.Scene {
	t.Helper()

	existing, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("store.List: %v", err)
	}
	now := time.Now().UTC()
	scene := scenes.Scene{ID: id, Text: text, ImageRef: imageRef, CreatedAt: now, UpdatedAt: now}
	if err := store.ReplaceAll(context.Background(), append(existing, scene)); err != nil {
		t.Fatalf("store.ReplaceAll: %v", err)
	}
	return scene
}
