package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// FFmpegRequirement describes the remux binary.
func FFmpegRequirement(binary string) Requirement {
	return Requirement{
		Name:        "FFmpeg",
		Command:     binary,
		Description: "Required for remuxing subtitles and probing media",
	}
}

// CheckFFmpeg resolves the configured ffmpeg binary and reads its version
// banner. A binary that resolves but cannot report a version is still
// considered available.
func CheckFFmpeg(ctx context.Context, binary string) Status {
	status := checkBinary(FFmpegRequirement(binary))
	if !status.Available {
		return status
	}
	if ctx == nil {
		ctx = context.Background()
	}
	versionCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(versionCtx, status.Path, "-hide_banner", "-version").Output() //nolint:gosec
	if err != nil {
		status.Detail = "version check failed"
		return status
	}
	status.Version = parseVersion(out)
	return status
}

// parseVersion extracts "n7.0" from "ffmpeg version n7.0 Copyright ...".
func parseVersion(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] == "version" {
				return fields[i+1]
			}
		}
	}
	return ""
}
