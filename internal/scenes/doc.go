// Package scenes is the single source of truth for session storyboard state.
//
// The Store keeps scenes in an in-memory SQLite database: created empty at
// process start, populated wholesale by generation, mutated scene-by-scene by
// regeneration and animation, and cleared when the user starts a new project.
// Nothing survives a restart.
//
// Mutations carry the data-model invariants: ReplaceAll is all-or-nothing,
// UpdateImage clears any video derived from the previous image, and
// SetVideoIfImage refuses to commit a video whose source image has since
// changed. Committed mutations are fanned out to Subscribe observers.
package scenes
