package library

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"subremux/internal/config"
	"subremux/internal/services"
)

// FileInfo is the stream summary of one media file.
type FileInfo struct {
	Path  string
	Lines []string
}

type outputRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Inspector summarises media files with ffmpeg.
type Inspector struct {
	browser *Browser
	binary  string
	run     outputRunner
}

// NewInspector builds an Inspector resolving paths through browser.
func NewInspector(cfg *config.Config, browser *Browser) *Inspector {
	return &Inspector{browser: browser, binary: cfg.FFmpegBinary(), run: combinedOutput}
}

// WithOutputRunner overrides command execution. Intended for tests.
func (p *Inspector) WithOutputRunner(run outputRunner) {
	if run != nil {
		p.run = run
	}
}

// Info runs "ffmpeg -i" on rel and returns its stream and duration lines.
// ffmpeg exits non-zero without an output file; that is expected and only a
// failure to start the binary is reported as an error.
func (p *Inspector) Info(ctx context.Context, rel string) (FileInfo, error) {
	full, info, err := p.browser.Stat(rel)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, services.Wrap(services.ErrValidation, "library", "info", "path is a directory", nil)
	}
	out, err := p.run(ctx, p.binary, "-hide_banner", "-nostdin", "-i", full)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return FileInfo{}, services.Wrap(services.ErrExternalTool, "library", "info", "run ffmpeg", err)
		}
	}
	return FileInfo{Path: cleanRel(rel), Lines: StreamLines(out)}, nil
}

// StreamLines keeps the lines of ffmpeg's input report describing streams of
// the first input and its duration.
func StreamLines(output []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "Stream #0:") || strings.Contains(line, "Duration:") {
			lines = append(lines, line)
		}
	}
	return lines
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
}
