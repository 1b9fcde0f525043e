package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"sceneforge/internal/config"
	"sceneforge/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyScenesGenerated(context.Background(), 4); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "scenes generated",
			notify: func(svc notifications.Service) error {
				return svc.NotifyScenesGenerated(context.Background(), 6)
			},
			expectTitle:   "SceneForge - Storyboard Ready",
			expectMessage: "Generated 6 scenes",
			expectTags:    "sceneforge,generate,completed",
		},
		{
			name: "scene regenerated",
			notify: func(svc notifications.Service) error {
				return svc.NotifySceneRegenerated(context.Background(), 3)
			},
			expectTitle:   "SceneForge - Scene Regenerated",
			expectMessage: "Scene 3 has a new image",
			expectTags:    "sceneforge,regenerate,completed",
		},
		{
			name: "scene animated",
			notify: func(svc notifications.Service) error {
				return svc.NotifySceneAnimated(context.Background(), 2)
			},
			expectTitle:   "SceneForge - Scene Animated",
			expectMessage: "Scene 2 animation is ready",
			expectTags:    "sceneforge,animate,completed",
		},
		{
			name: "export clean",
			notify: func(svc notifications.Service) error {
				return svc.NotifyExportCompleted(context.Background(), 5, 0)
			},
			expectTitle:   "SceneForge - Export Complete",
			expectMessage: "Archived 5 scenes",
			expectTags:    "sceneforge,export,completed",
		},
		{
			name: "export with gaps",
			notify: func(svc notifications.Service) error {
				return svc.NotifyExportCompleted(context.Background(), 4, 2)
			},
			expectTitle:   "SceneForge - Export Complete (with gaps)",
			expectMessage: "Archived 4 scenes, skipped 2 with unreachable assets",
			expectTags:    "sceneforge,export,completed",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("model unavailable"), "animate")
			},
			expectTitle:    "SceneForge - Error",
			expectMessage:  "Error with animate: model unavailable",
			expectTags:     "sceneforge,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsEventToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Generation = false
	cfg.Notifications.Animation = false
	cfg.Notifications.Export = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	if err := svc.NotifyScenesGenerated(ctx, 3); err != nil {
		t.Fatalf("suppressed generation event returned error: %v", err)
	}
	if err := svc.NotifySceneAnimated(ctx, 1); err != nil {
		t.Fatalf("suppressed animation event returned error: %v", err)
	}
	if err := svc.NotifyExportCompleted(ctx, 1, 0); err != nil {
		t.Fatalf("suppressed export event returned error: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("boom"), "export"); err != nil {
		t.Fatalf("suppressed error event returned error: %v", err)
	}
}
