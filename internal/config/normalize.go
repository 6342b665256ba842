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
	c.normalizeFFmpeg()
	c.normalizeJobs()
	c.normalizeUploads()
	c.normalizeLibrary()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		c.Paths.MediaDir = defaultMediaDir
	}
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		c.Paths.UploadDir = defaultUploadDir
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if value, ok := os.LookupEnv(apiTokenEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIToken = value
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeFFmpeg() {
	if value, ok := os.LookupEnv(ffmpegBinaryEnv); ok && strings.TrimSpace(value) != "" {
		c.FFmpeg.Binary = value
	}
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	if c.FFmpeg.ProgressInterval <= 0 {
		c.FFmpeg.ProgressInterval = defaultProgressInterval
	}
	if c.FFmpeg.StderrLimitKiB <= 0 {
		c.FFmpeg.StderrLimitKiB = defaultStderrLimitKiB
	}
}

func (c *Config) normalizeJobs() {
	if c.Jobs.NameMaxLength <= 0 {
		c.Jobs.NameMaxLength = defaultNameMaxLength
	}
	if c.Jobs.ErrorDetailLength <= 0 {
		c.Jobs.ErrorDetailLength = defaultErrorDetailLength
	}
	if c.Jobs.HistoryLimit < 0 {
		c.Jobs.HistoryLimit = 0
	}
}

func (c *Config) normalizeUploads() {
	exts := make([]string, 0, len(c.Uploads.AllowedExtensions))
	seen := make(map[string]struct{}, len(c.Uploads.AllowedExtensions))
	for _, ext := range c.Uploads.AllowedExtensions {
		normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultAllowedExtensions...)
	}
	c.Uploads.AllowedExtensions = exts

	c.Uploads.FallbackEncoding = strings.ToLower(strings.TrimSpace(c.Uploads.FallbackEncoding))
	if c.Uploads.FallbackEncoding == "" {
		c.Uploads.FallbackEncoding = defaultFallbackEncoding
	}
	if c.Uploads.MaxUploadMiB <= 0 {
		c.Uploads.MaxUploadMiB = defaultMaxUploadMiB
	}
}

func (c *Config) normalizeLibrary() {
	exts := make([]string, 0, len(c.Library.MediaExtensions))
	for _, ext := range c.Library.MediaExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultMediaExtensions...)
	}
	c.Library.MediaExtensions = exts
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}
