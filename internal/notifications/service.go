package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sceneforge/internal/config"
)

const userAgent = "SceneForge-Go/0.1.0"

// Service defines the notification surface exposed to storyboard components.
type Service interface {
	NotifyScenesGenerated(ctx context.Context, count int) error
	NotifySceneRegenerated(ctx context.Context, sceneID int64) error
	NotifySceneAnimated(ctx context.Context, sceneID int64) error
	NotifyExportCompleted(ctx context.Context, archived, skipped int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:   topic,
		client:     client,
		generation: cfg.Notifications.Generation,
		animation:  cfg.Notifications.Animation,
		export:     cfg.Notifications.Export,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	generation bool
	animation  bool
	export     bool
	errors     bool
}

func (n *ntfyService) NotifyScenesGenerated(ctx context.Context, count int) error {
	if !n.generation {
		return nil
	}
	data := payload{
		title:   "SceneForge - Storyboard Ready",
		message: fmt.Sprintf("Generated %d scenes", count),
		tags:    []string{"sceneforge", "generate", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySceneRegenerated(ctx context.Context, sceneID int64) error {
	if !n.generation {
		return nil
	}
	data := payload{
		title:   "SceneForge - Scene Regenerated",
		message: fmt.Sprintf("Scene %d has a new image", sceneID),
		tags:    []string{"sceneforge", "regenerate", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySceneAnimated(ctx context.Context, sceneID int64) error {
	if !n.animation {
		return nil
	}
	data := payload{
		title:   "SceneForge - Scene Animated",
		message: fmt.Sprintf("Scene %d animation is ready", sceneID),
		tags:    []string{"sceneforge", "animate", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExportCompleted(ctx context.Context, archived, skipped int) error {
	if !n.export {
		return nil
	}
	var title, message string
	if skipped == 0 {
		title = "SceneForge - Export Complete"
		message = fmt.Sprintf("Archived %d scenes", archived)
	} else {
		title = "SceneForge - Export Complete (with gaps)"
		message = fmt.Sprintf("Archived %d scenes, skipped %d with unreachable assets", archived, skipped)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"sceneforge", "export", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "SceneForge - Error",
		message:  builder.String(),
		tags:     []string{"sceneforge", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "SceneForge - Test",
		message:  "Notification system test",
		tags:     []string{"sceneforge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewNop returns a Service that drops every notification.
func NewNop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) NotifyScenesGenerated(context.Context, int) error        { return nil }
func (noopService) NotifySceneRegenerated(context.Context, int64) error     { return nil }
func (noopService) NotifySceneAnimated(context.Context, int64) error        { return nil }
func (noopService) NotifyExportCompleted(context.Context, int, int) error   { return nil }
func (noopService) NotifyError(context.Context, error, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
