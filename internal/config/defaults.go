package config

const (
	defaultLogDir              = "~/.local/share/sceneforge/logs"
	defaultExportDir           = "~/.local/share/sceneforge/exports"
	defaultAPIBind             = "127.0.0.1:7823"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultReplicateBaseURL    = "https://api.replicate.com/v1"
	defaultImageModel          = "black-forest-labs/flux-schnell"
	defaultVideoModel          = "minimax/video-01-live"
	defaultReplicateTimeout    = 120
	defaultReplicatePollSecs   = 2
	defaultGenerationStyle     = "cinematic"
	defaultGenerationRatio     = "16:9"
	defaultGenerationQuality   = "high"
	defaultExportConcurrency   = 4
	defaultNotifyTimeoutSecs   = 10
	replicateAPITokenEnv       = "REPLICATE_API_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
			APIBind:   defaultAPIBind,
		},
		Replicate: Replicate{
			BaseURL:             defaultReplicateBaseURL,
			ImageModel:          defaultImageModel,
			VideoModel:          defaultVideoModel,
			TimeoutSeconds:      defaultReplicateTimeout,
			PollIntervalSeconds: defaultReplicatePollSecs,
		},
		Generation: Generation{
			Style:       defaultGenerationStyle,
			AspectRatio: defaultGenerationRatio,
			Quality:     defaultGenerationQuality,
		},
		Export: Export{
			Concurrency: defaultExportConcurrency,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeoutSecs,
			Generation:     true,
			Animation:      true,
			Export:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
