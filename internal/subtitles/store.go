package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"subremux/internal/config"
	"subremux/internal/fileutil"
	"subremux/internal/logging"
	"subremux/internal/services"
	"subremux/internal/textutil"
)

// Saved describes a subtitle written to the uploads directory.
type Saved struct {
	Name     string
	Path     string
	Encoding string
	Cues     int
	Bytes    int
}

// Store validates and persists uploaded subtitle files.
type Store struct {
	dir      string
	allowed  []string
	maxBytes int64
	decoder  *Decoder
	logger   *slog.Logger
}

// NewStore builds a Store rooted at the configured upload directory.
func NewStore(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "subtitles", "init", "configuration is required", nil)
	}
	decoder, err := NewDecoder(cfg.Uploads.FallbackEncoding)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "subtitles", "init", "invalid fallback encoding", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	allowed := make([]string, 0, len(cfg.Uploads.AllowedExtensions))
	for _, ext := range cfg.Uploads.AllowedExtensions {
		if ext = normalizeExt(ext); ext != "" {
			allowed = append(allowed, ext)
		}
	}
	return &Store{
		dir:      cfg.Paths.UploadDir,
		allowed:  allowed,
		maxBytes: int64(cfg.Uploads.MaxUploadMiB) << 20,
		decoder:  decoder,
		logger:   logging.NewComponentLogger(logger, "subtitles"),
	}, nil
}

// Dir returns the uploads directory.
func (s *Store) Dir() string { return s.dir }

// MaxBytes returns the largest accepted upload, or 0 when unbounded.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Allowed reports whether filename, as uploaded, has an accepted subtitle
// extension.
func (s *Store) Allowed(filename string) bool {
	return slices.Contains(s.allowed, normalizeExt(textutil.Extension(uploadBase(filename))))
}

// Save validates filename, decodes data, and writes it as UTF-8 into the
// uploads directory under its sanitized name, replacing any previous file.
func (s *Store) Save(ctx context.Context, filename string, data []byte) (Saved, error) {
	logger := logging.WithContext(ctx, s.logger)
	if strings.TrimSpace(filename) == "" {
		return Saved{}, services.Wrap(services.ErrValidation, "subtitles", "save", "subtitle file name is empty", nil)
	}
	if !s.Allowed(filename) {
		return Saved{}, services.Wrap(services.ErrValidation, "subtitles", "save",
			fmt.Sprintf("unsupported subtitle type %q (allowed: %s)", textutil.Extension(filename), strings.Join(s.allowed, ", ")), nil)
	}
	name := storedName(filename)
	if len(data) == 0 {
		return Saved{}, services.Wrap(services.ErrValidation, "subtitles", "save", "subtitle file is empty", nil)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return Saved{}, services.Wrap(services.ErrValidation, "subtitles", "save", "subtitle file is too large", nil)
	}

	text, enc, err := s.decoder.Decode(data)
	if err != nil {
		return Saved{}, services.Wrap(services.ErrValidation, "subtitles", "decode", "subtitle text could not be decoded", err)
	}
	path := filepath.Join(s.dir, name)
	if err := fileutil.WriteFileAtomic(path, []byte(text), 0o644); err != nil {
		return Saved{}, services.Wrap(services.ErrConfiguration, "subtitles", "save", "write subtitle file", err)
	}

	saved := Saved{Name: name, Path: path, Encoding: enc, Bytes: len(text)}
	if normalizeExt(textutil.Extension(name)) == "srt" {
		saved.Cues = CountCues(text)
	}
	if enc != encodingUTF8 {
		logger.Info("subtitle transcoded to utf-8",
			logging.String("file", name),
			logging.String("source_encoding", enc),
		)
	}
	logger.Debug("subtitle saved",
		logging.String("path", path),
		logging.Int("bytes", saved.Bytes),
		logging.Int("cues", saved.Cues),
	)
	return saved, nil
}

// SanitizeName reduces an uploaded file name to a safe base name.
func SanitizeName(filename string) string {
	return textutil.SecureFileName(uploadBase(filename))
}

// storedName is the sanitized name, or "subtitle.<ext>" when sanitizing
// drops the stem or the extension (non-Latin names such as "Фильм.srt").
func storedName(filename string) string {
	ext := normalizeExt(textutil.Extension(uploadBase(filename)))
	name := SanitizeName(filename)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if normalizeExt(textutil.Extension(name)) != ext || strings.Trim(stem, "._") == "" {
		return "subtitle." + ext
	}
	return name
}

func uploadBase(filename string) string {
	return filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
}

// DestinationFor returns where the remux of source is written: the uploads
// directory joined with the source's base name.
func DestinationFor(uploadDir, source string) string {
	return filepath.Join(uploadDir, filepath.Base(source))
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
