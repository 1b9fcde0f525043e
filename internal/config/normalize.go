package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeReplicate()
	c.normalizeGeneration()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeReplicate() {
	if c.Replicate.APIToken == "" {
		if value, ok := os.LookupEnv(replicateAPITokenEnv); ok {
			c.Replicate.APIToken = strings.TrimSpace(value)
		}
	}
	c.Replicate.BaseURL = strings.TrimRight(strings.TrimSpace(c.Replicate.BaseURL), "/")
	if c.Replicate.BaseURL == "" {
		c.Replicate.BaseURL = defaultReplicateBaseURL
	}
	c.Replicate.ImageModel = strings.TrimSpace(c.Replicate.ImageModel)
	if c.Replicate.ImageModel == "" {
		c.Replicate.ImageModel = defaultImageModel
	}
	c.Replicate.VideoModel = strings.TrimSpace(c.Replicate.VideoModel)
	if c.Replicate.VideoModel == "" {
		c.Replicate.VideoModel = defaultVideoModel
	}
	if c.Replicate.TimeoutSeconds <= 0 {
		c.Replicate.TimeoutSeconds = defaultReplicateTimeout
	}
	if c.Replicate.PollIntervalSeconds <= 0 {
		c.Replicate.PollIntervalSeconds = defaultReplicatePollSecs
	}
}

func (c *Config) normalizeGeneration() {
	c.Generation.Style = strings.ToLower(strings.TrimSpace(c.Generation.Style))
	if c.Generation.Style == "" {
		c.Generation.Style = defaultGenerationStyle
	}
	c.Generation.AspectRatio = strings.TrimSpace(c.Generation.AspectRatio)
	if c.Generation.AspectRatio == "" {
		c.Generation.AspectRatio = defaultGenerationRatio
	}
	c.Generation.Quality = strings.ToLower(strings.TrimSpace(c.Generation.Quality))
	if c.Generation.Quality == "" {
		c.Generation.Quality = defaultGenerationQuality
	}
}

func (c *Config) normalizeExport() {
	if c.Export.Concurrency <= 0 {
		c.Export.Concurrency = defaultExportConcurrency
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeoutSecs
	}
}
