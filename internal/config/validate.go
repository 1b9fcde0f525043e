package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	knownStyles    = []string{"cinematic", "artistic", "realistic"}
	knownRatios    = []string{"16:9", "1:1", "9:16"}
	knownQualities = []string{"high", "standard"}
)

// Validate ensures the configuration is usable.
//
// The Replicate API token is deliberately not required here: its absence is
// surfaced per request as a descriptive configuration error so the server can
// still start for export and inspection.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if !contains(knownStyles, c.Generation.Style) {
		return fmt.Errorf("generation.style must be one of %s", strings.Join(knownStyles, ", "))
	}
	if !contains(knownRatios, c.Generation.AspectRatio) {
		return fmt.Errorf("generation.aspect_ratio must be one of %s", strings.Join(knownRatios, ", "))
	}
	if !contains(knownQualities, c.Generation.Quality) {
		return fmt.Errorf("generation.quality must be one of %s", strings.Join(knownQualities, ", "))
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
