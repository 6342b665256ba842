package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateJobs(); err != nil {
		return err
	}
	if err := c.validateUploads(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validatePaths() error {
	if c.Paths.MediaDir == "" {
		return errors.New("paths.media_dir must be set")
	}
	if c.Paths.UploadDir == "" {
		return errors.New("paths.upload_dir must be set")
	}
	if c.Paths.MediaDir == c.Paths.UploadDir {
		return errors.New("paths.upload_dir must differ from paths.media_dir")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateJobs() error {
	if err := ensurePositiveMap(map[string]int{
		"jobs.name_max_length":     c.Jobs.NameMaxLength,
		"jobs.error_detail_length": c.Jobs.ErrorDetailLength,
		"ffmpeg.progress_interval": c.FFmpeg.ProgressInterval,
		"ffmpeg.stderr_limit_kib":  c.FFmpeg.StderrLimitKiB,
		"uploads.max_upload_mib":   c.Uploads.MaxUploadMiB,
	}); err != nil {
		return err
	}
	if c.Jobs.HistoryLimit < 0 {
		return errors.New("jobs.history_limit must be >= 0")
	}
	return nil
}

func (c *Config) validateUploads() error {
	for _, ext := range c.Uploads.AllowedExtensions {
		if strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("uploads.allowed_extensions: invalid extension %q", ext)
		}
	}
	enc, err := ianaindex.IANA.Encoding(c.Uploads.FallbackEncoding)
	if err != nil || enc == nil {
		return fmt.Errorf("uploads.fallback_encoding: unsupported encoding %q", c.Uploads.FallbackEncoding)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) URL", topic)
	}
	return nil
}
