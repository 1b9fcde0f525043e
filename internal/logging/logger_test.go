package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestConsoleHandlerFormatsRecord(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	handler := newConsoleHandler(&buf, levelVar)
	logger := slog.New(handler).With(SceneID(3))

	logger.Info("scene generated", slog.String("style", "cinematic"))

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{"INF", "scene generated", "sceneID=3", "style=cinematic"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	handler := newConsoleHandler(&buf, new(slog.LevelVar))
	slog.New(handler).Info("msg", slog.String("text", "a serene forest"))
	if !strings.Contains(buf.String(), `text="a serene forest"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	handler := newConsoleHandler(&buf, levelVar)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should be enabled at warn level")
	}
}

func TestConsoleHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	handler := newConsoleHandler(&buf, new(slog.LevelVar))
	logger := slog.New(handler).WithGroup("export")
	logger.Info("done", slog.Int("entries", 4))
	if !strings.Contains(buf.String(), "export.entries=4") {
		t.Fatalf("expected grouped key, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must be disabled for every standard level.
	logger.Error("ignored", slog.Duration("elapsed", time.Second))
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}
}
