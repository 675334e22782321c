package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// WorkDir holds per-task scratch directories for downloads, tagged
	// outputs, and thumbnails.
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
	// SettingsDB is the SQLite file holding per-user settings.
	SettingsDB string `toml:"settings_db"`
}

// Queue contains admission control limits.
type Queue struct {
	// MaxPerUser bounds concurrently running tasks for a single user.
	MaxPerUser int `toml:"max_per_user"`
	// MaxDownloads and MaxUploads bound concurrent transfers globally,
	// across all users.
	MaxDownloads int `toml:"max_downloads"`
	MaxUploads   int `toml:"max_uploads"`
	// DedupWindowSeconds suppresses resubmission of a file identifier that
	// is already queued or active.
	DedupWindowSeconds int `toml:"dedup_window_seconds"`
	// PendingCap rejects submissions once a user's pending queue reaches
	// this size. Zero means unbounded (the default policy).
	PendingCap int `toml:"pending_cap"`
	// PruneIntervalSeconds controls how often empty per-user queue state is
	// discarded.
	PruneIntervalSeconds int `toml:"prune_interval_seconds"`
}

// Delivery contains upload and sequence replay behavior.
type Delivery struct {
	// FloodRetryLimit bounds delivery retries after flood-control signals.
	FloodRetryLimit int `toml:"flood_retry_limit"`
	// MaxFileSizeBytes rejects inbound files larger than this before
	// queueing. Zero disables the check.
	MaxFileSizeBytes int64 `toml:"max_file_size_bytes"`
	// SequenceItemDelayMS is the pause between redelivered sequence items.
	SequenceItemDelayMS int `toml:"sequence_item_delay_ms"`
	// SequenceProgressEvery controls how many sequence items are sent
	// between progress edits.
	SequenceProgressEvery int `toml:"sequence_progress_every"`
	// ProgressPercentStep throttles transfer progress edits to bucket
	// boundaries of this size.
	ProgressPercentStep float64 `toml:"progress_percent_step"`
}

// Tools contains external binary configuration.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Transport configures the chat API the daemon talks to.
type Transport struct {
	// BotToken authenticates against the chat API. Required to run the
	// daemon; the CLI works without it.
	BotToken string `toml:"bot_token"`
	// APIURL overrides the API base, e.g. for a local API server.
	APIURL string `toml:"api_url"`
	// RequestTimeoutSeconds bounds non-transfer API calls.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications configures optional operator alerts.
type Notifications struct {
	// NtfyTopic is the full ntfy topic URL. Empty disables alerts.
	NtfyTopic string `toml:"ntfy_topic"`
	// NtfyRequestTimeoutSeconds bounds each publish call.
	NtfyRequestTimeoutSeconds int `toml:"ntfy_request_timeout_seconds"`
}

// Config encapsulates all configuration values for renamer.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Queue         Queue         `toml:"queue"`
	Delivery      Delivery      `toml:"delivery"`
	Tools         Tools         `toml:"tools"`
	Transport     Transport     `toml:"transport"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// RequestTimeout returns the transport request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Transport.RequestTimeoutSeconds) * time.Second
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/renamer/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("renamer.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.SettingsDB, err = expandPath(c.Paths.SettingsDB); err != nil {
		return err
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.LogDir, filepath.Dir(c.Paths.SettingsDB)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DedupWindow returns the duplicate suppression window as a duration.
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.Queue.DedupWindowSeconds) * time.Second
}

// PruneInterval returns the queue-state prune cadence as a duration.
func (c *Config) PruneInterval() time.Duration {
	return time.Duration(c.Queue.PruneIntervalSeconds) * time.Second
}

// SequenceItemDelay returns the pause between redelivered sequence items.
func (c *Config) SequenceItemDelay() time.Duration {
	return time.Duration(c.Delivery.SequenceItemDelayMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
