package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subremux/internal/config"
)

// WriteMedia writes data to rel under the media directory and returns the
// absolute path.
func WriteMedia(t testing.TB, cfg *config.Config, rel string, data []byte) string {
	t.Helper()
	full := filepath.Join(cfg.Paths.MediaDir, filepath.FromSlash(rel))
	WriteFile(t, full, data)
	return full
}

// WriteFile creates parent directories and writes data to path.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
