// Package testsupport builds throwaway configurations and fixtures for tests
// that run the daemon against a scripted ffmpeg.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subremux/internal/config"
)

// FakeFFmpeg answers "-version" calls, prints a stream report for bare
// "-i file" calls, and otherwise copies the first input to the last
// argument, failing like ffmpeg when that input is missing.
const FakeFFmpeg = `#!/bin/sh
if [ "$2" = "-version" ]; then
  echo "ffmpeg version n7.0-test"
  exit 0
fi
if [ "$#" -eq 4 ]; then
  echo "  Duration: 00:00:01.00, start: 0.000000, bitrate: 1 kb/s" >&2
  echo "  Stream #0:0: Video: h264" >&2
  echo "At least one output file must be specified" >&2
  exit 1
fi
for last; do :; done
src=""
prev=""
for a; do
  if [ "$prev" = "-i" ] && [ -z "$src" ]; then src="$a"; fi
  prev="$a"
done
if [ ! -f "$src" ]; then
  echo "$src: No such file or directory" >&2
  exit 1
fi
cp "$src" "$last"
`

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
	script  string
}

// NewConfig returns a config rooted in a fresh temp directory: media, upload
// and log directories exist, the API binds an ephemeral loopback port, and
// ffmpeg is a FakeFFmpeg script.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.MediaDir = filepath.Join(base, "media")
	cfgVal.Paths.UploadDir = filepath.Join(base, "uploads")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal, script: FakeFFmpeg}
	for _, opt := range opts {
		opt(builder)
	}

	stub := filepath.Join(base, "bin", "ffmpeg")
	if err := os.MkdirAll(filepath.Dir(stub), 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	if err := os.WriteFile(stub, []byte(builder.script), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	cfgVal.FFmpeg.Binary = stub

	if err := os.MkdirAll(cfgVal.Paths.MediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media dir: %v", err)
	}
	if err := cfgVal.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAPIToken requires bearer auth on the API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithFFmpegScript replaces the FakeFFmpeg script.
func WithFFmpegScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.script = script
	}
}

// BaseDir returns the temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.MediaDir)
}
