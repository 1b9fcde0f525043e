package scenes_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sceneforge/internal/scenes"
	"sceneforge/internal/testsupport"
)

func seedScenes(t *testing.T, store *scenes.Store, texts ...string) []scenes.Scene {
	t.Helper()
	now := time.Now().UTC()
	batch := make([]scenes.Scene, 0, len(texts))
	for i, text := range texts {
		batch = append(batch, scenes.Scene{
			ID:        int64(i + 1),
			Text:      text,
			ImageRef:  "data:image/webp;base64,AAAA",
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := store.ReplaceAll(context.Background(), batch); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	return batch
}

func TestReplaceAllPreservesOrder(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	seedScenes(t, store, "A", "B", "C")

	listed, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(listed))
	}
	for i, want := range []string{"A", "B", "C"} {
		if listed[i].ID != int64(i+1) || listed[i].Text != want {
			t.Fatalf("scene %d: got id=%d text=%q", i, listed[i].ID, listed[i].Text)
		}
	}
}

func TestReplaceAllOverwritesPrevious(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	seedScenes(t, store, "old one", "old two")
	seedScenes(t, store, "new")

	listed, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 || listed[0].Text != "new" {
		t.Fatalf("expected replacement, got %#v", listed)
	}
}

func TestUpdateImageClearsVideo(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	seedScenes(t, store, "A")
	ctx := context.Background()

	if err := store.SetVideoIfImage(ctx, 1, "https://cdn.example/video.mp4", "data:image/webp;base64,AAAA", time.Now()); err != nil {
		t.Fatalf("SetVideoIfImage failed: %v", err)
	}
	scene, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !scene.HasVideo() || scene.LastAnimatedAt == nil {
		t.Fatalf("expected video set, got %#v", scene)
	}

	if err := store.UpdateImage(ctx, 1, "data:image/webp;base64,BBBB"); err != nil {
		t.Fatalf("UpdateImage failed: %v", err)
	}
	scene, err = store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if scene.HasVideo() {
		t.Fatal("expected video cleared after image update")
	}
	if scene.LastAnimatedAt != nil {
		t.Fatal("expected last-animated cleared after image update")
	}
	if scene.ImageRef != "data:image/webp;base64,BBBB" {
		t.Fatalf("unexpected image ref %q", scene.ImageRef)
	}
}

func TestSetVideoIfImageRejectsStaleImage(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	seedScenes(t, store, "A")
	ctx := context.Background()

	// Image changes while an animation is in flight.
	if err := store.UpdateImage(ctx, 1, "data:image/webp;base64,CCCC"); err != nil {
		t.Fatalf("UpdateImage failed: %v", err)
	}

	err := store.SetVideoIfImage(ctx, 1, "https://cdn.example/video.mp4", "data:image/webp;base64,AAAA", time.Now())
	if !errors.Is(err, scenes.ErrImageChanged) {
		t.Fatalf("expected ErrImageChanged, got %v", err)
	}

	scene, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if scene.HasVideo() {
		t.Fatal("stale video must not be committed")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	if _, err := store.GetByID(context.Background(), 42); !errors.Is(err, scenes.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateImage(context.Background(), 42, "x"); !errors.Is(err, scenes.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from UpdateImage, got %v", err)
	}
}

func TestClearAndStats(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	seedScenes(t, store, "A", "B")
	ctx := context.Background()

	if err := store.SetVideoIfImage(ctx, 1, "vid", "data:image/webp;base64,AAAA", time.Now()); err != nil {
		t.Fatalf("SetVideoIfImage failed: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Animated != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected empty store, got %+v", stats)
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	events, cancel := store.Subscribe()
	defer cancel()

	seedScenes(t, store, "A")

	select {
	case change := <-events:
		if change.Op != scenes.ChangeReplaced {
			t.Fatalf("expected replaced event, got %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
	}

	if err := store.UpdateImage(context.Background(), 1, "next"); err != nil {
		t.Fatalf("UpdateImage failed: %v", err)
	}
	select {
	case change := <-events:
		if change.Op != scenes.ChangeImageUpdated || change.SceneID != 1 {
			t.Fatalf("expected image event for scene 1, got %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestExportName(t *testing.T) {
	scene := scenes.Scene{ID: 7, ImageRef: "img"}
	if scene.ExportName() != "scene-7.webp" {
		t.Fatalf("unexpected name %q", scene.ExportName())
	}
	scene.VideoRef = "vid"
	if scene.ExportName() != "scene-7.mp4" {
		t.Fatalf("unexpected name %q", scene.ExportName())
	}
	if scene.AssetRef() != "vid" {
		t.Fatalf("expected video preferred, got %q", scene.AssetRef())
	}
}
