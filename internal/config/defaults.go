package config

const (
	defaultWorkDir               = "~/.local/share/renamer/work"
	defaultLogDir                = "~/.local/share/renamer/logs"
	defaultSettingsDB            = "~/.local/share/renamer/settings.db"
	defaultMaxPerUser            = 4
	defaultMaxDownloads          = 6
	defaultMaxUploads            = 4
	defaultDedupWindowSeconds    = 15
	defaultPruneIntervalSeconds  = 300
	defaultFloodRetryLimit       = 3
	defaultMaxFileSizeBytes      = 2 << 30
	defaultSequenceItemDelayMS   = 500
	defaultSequenceProgressEvery = 5
	defaultProgressPercentStep   = 5.0
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultAPIURL                = "https://api.telegram.org"
	defaultRequestTimeoutSecs    = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNtfyTimeoutSecs       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:    defaultWorkDir,
			LogDir:     defaultLogDir,
			SettingsDB: defaultSettingsDB,
		},
		Queue: Queue{
			MaxPerUser:           defaultMaxPerUser,
			MaxDownloads:         defaultMaxDownloads,
			MaxUploads:           defaultMaxUploads,
			DedupWindowSeconds:   defaultDedupWindowSeconds,
			PendingCap:           0,
			PruneIntervalSeconds: defaultPruneIntervalSeconds,
		},
		Delivery: Delivery{
			FloodRetryLimit:       defaultFloodRetryLimit,
			MaxFileSizeBytes:      defaultMaxFileSizeBytes,
			SequenceItemDelayMS:   defaultSequenceItemDelayMS,
			SequenceProgressEvery: defaultSequenceProgressEvery,
			ProgressPercentStep:   defaultProgressPercentStep,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Transport: Transport{
			APIURL:                defaultAPIURL,
			RequestTimeoutSeconds: defaultRequestTimeoutSecs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			NtfyRequestTimeoutSeconds: defaultNtfyTimeoutSecs,
		},
	}
}
