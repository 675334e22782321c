package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateTransport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.SettingsDB == "" {
		return errors.New("paths.settings_db must be set")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.MaxPerUser <= 0 {
		return errors.New("queue.max_per_user must be positive")
	}
	if c.Queue.MaxDownloads <= 0 {
		return errors.New("queue.max_downloads must be positive")
	}
	if c.Queue.MaxUploads <= 0 {
		return errors.New("queue.max_uploads must be positive")
	}
	if c.Queue.DedupWindowSeconds < 0 {
		return errors.New("queue.dedup_window_seconds must not be negative")
	}
	if c.Queue.PendingCap < 0 {
		return errors.New("queue.pending_cap must be zero (unbounded) or positive")
	}
	if c.Queue.PruneIntervalSeconds <= 0 {
		return errors.New("queue.prune_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateDelivery() error {
	if c.Delivery.FloodRetryLimit < 1 {
		return errors.New("delivery.flood_retry_limit must be at least 1")
	}
	if c.Delivery.MaxFileSizeBytes < 0 {
		return errors.New("delivery.max_file_size_bytes must be zero (disabled) or positive")
	}
	if c.Delivery.SequenceItemDelayMS < 0 {
		return errors.New("delivery.sequence_item_delay_ms must not be negative")
	}
	if c.Delivery.SequenceProgressEvery <= 0 {
		return errors.New("delivery.sequence_progress_every must be positive")
	}
	if c.Delivery.ProgressPercentStep <= 0 || c.Delivery.ProgressPercentStep > 100 {
		return errors.New("delivery.progress_percent_step must be in (0, 100]")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must name the tag injection binary")
	}
	if c.Tools.FFprobe == "" {
		return errors.New("tools.ffprobe must name the media probe binary")
	}
	return nil
}

func (c *Config) validateTransport() error {
	if c.Transport.APIURL == "" {
		return errors.New("transport.api_url must be set")
	}
	if c.Transport.RequestTimeoutSeconds <= 0 {
		return errors.New("transport.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" && c.Notifications.NtfyRequestTimeoutSeconds <= 0 {
		return errors.New("notifications.ntfy_request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
