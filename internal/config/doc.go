// Package config loads, normalizes, and validates SceneForge configuration.
//
// Configuration comes from a TOML file (~/.config/sceneforge/config.toml or
// ./sceneforge.toml), with the Replicate credential additionally resolvable
// from the REPLICATE_API_TOKEN environment variable or a .env file. Load
// returns a fully normalized config: paths expanded to absolute form and
// every unset field replaced by its default.
package config
