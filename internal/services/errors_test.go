package services_test

import (
	"errors"
	"testing"

	"sceneforge/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrCollaborator, "replicate", "generate image", "request failed", base)
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("expected collaborator marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	want := "collaborator error: replicate: generate image: request failed: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "export", "", "", nil)
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "", "", "", nil)
	if err.Error() != "validation error: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
