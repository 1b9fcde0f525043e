// Package logging assembles the structured slog loggers used across
// SceneForge.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes shared attribute helpers so operation code tags log
// lines with scene IDs and request IDs consistently. Prefer these
// constructors over hand-rolled slog setup.
package logging
