package library

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"subremux/internal/config"
	"subremux/internal/logging"
	"subremux/internal/services"
)

// Entry is one item in a directory listing.
type Entry struct {
	Name      string
	Path      string
	IsDir     bool
	Size      int64
	HumanSize string
	ModTime   time.Time
}

// Listing is the content of one library directory.
type Listing struct {
	Path    string
	Parent  string
	IsRoot  bool
	Entries []Entry
}

// Browser lists and resolves paths inside the media directory.
type Browser struct {
	root   string
	exts   []string
	logger *slog.Logger
}

// NewBrowser builds a Browser over cfg.Paths.MediaDir.
func NewBrowser(cfg *config.Config, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = logging.NewNop()
	}
	b := &Browser{logger: logging.NewComponentLogger(logger, "library")}
	if cfg != nil {
		b.root = filepath.Clean(cfg.Paths.MediaDir)
		for _, ext := range cfg.Library.MediaExtensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			b.exts = append(b.exts, ext)
		}
	}
	return b
}

// Root returns the media directory.
func (b *Browser) Root() string { return b.root }

// Resolve maps a slash-separated path relative to the media directory onto
// the filesystem. The empty path is the media directory itself.
func (b *Browser) Resolve(rel string) (string, error) {
	rel = cleanRel(rel)
	if rel == "" {
		return b.root, nil
	}
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", services.Wrap(services.ErrValidation, "library", "resolve", "path escapes the media directory", nil)
	}
	return filepath.Join(b.root, filepath.FromSlash(rel)), nil
}

// Stat resolves rel and reports whether it is an existing directory.
func (b *Browser) Stat(rel string) (string, fs.FileInfo, error) {
	full, err := b.Resolve(rel)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, services.Wrap(services.ErrNotFound, "library", "stat", cleanRel(rel), nil)
		}
		return "", nil, services.Wrap(services.ErrExternalTool, "library", "stat", cleanRel(rel), err)
	}
	return full, info, nil
}

// List returns the subdirectories and media files of rel. Directories come
// first; each group is sorted by name. Hidden entries are skipped.
func (b *Browser) List(ctx context.Context, rel string) (Listing, error) {
	rel = cleanRel(rel)
	full, info, err := b.Stat(rel)
	if err != nil {
		return Listing{}, err
	}
	if !info.IsDir() {
		return Listing{}, services.Wrap(services.ErrValidation, "library", "list", rel+" is not a directory", nil)
	}
	dirents, err := os.ReadDir(full)
	if err != nil {
		return Listing{}, services.Wrap(services.ErrExternalTool, "library", "list", "read directory", err)
	}

	listing := Listing{Path: rel, IsRoot: rel == ""}
	if !listing.IsRoot {
		listing.Parent = parentOf(rel)
	}
	var dirs, files []Entry
	for _, d := range dirents {
		if err := ctx.Err(); err != nil {
			return Listing{}, err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		fi, err := os.Stat(filepath.Join(full, name))
		if err != nil {
			b.logger.Debug("skipping unreadable entry", logging.String("name", name), logging.Error(err))
			continue
		}
		entry := Entry{Name: name, Path: path.Join(rel, name), ModTime: fi.ModTime()}
		switch {
		case fi.IsDir():
			entry.IsDir = true
			dirs = append(dirs, entry)
		case b.isMedia(name):
			entry.Size = fi.Size()
			entry.HumanSize = humanize.IBytes(uint64(fi.Size())) //nolint:gosec
			files = append(files, entry)
		}
	}
	byName := func(x, y Entry) int { return strings.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name)) }
	slices.SortFunc(dirs, byName)
	slices.SortFunc(files, byName)
	listing.Entries = append(dirs, files...)
	return listing, nil
}

func (b *Browser) isMedia(name string) bool {
	return slices.Contains(b.exts, strings.ToLower(filepath.Ext(name)))
}

func cleanRel(rel string) string {
	rel = strings.Trim(strings.TrimSpace(filepath.ToSlash(rel)), "/")
	if rel == "" || rel == "." {
		return ""
	}
	return rel
}

func parentOf(rel string) string {
	parent := path.Dir(rel)
	if parent == "." {
		return ""
	}
	return parent
}
