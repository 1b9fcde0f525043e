// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"sceneforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ExportDir = filepath.Join(base, "exports")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Replicate.APIToken = "r8_test"
	cfg.Replicate.TimeoutSeconds = 5
	cfg.Replicate.PollIntervalSeconds = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAPIToken sets the bearer token required on API routes.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.APIToken = token
	}
}

// WithoutReplicateToken clears the collaborator credential to exercise
// configuration-error paths.
func WithoutReplicateToken() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Replicate.APIToken = ""
	}
}
