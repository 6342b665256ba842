package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeScript(t, t.TempDir(), "present", "exit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "   ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("unexpected status for present binary: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail: %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" || !results[2].Optional {
		t.Fatalf("unexpected status for blank command: %#v", results[2])
	}
}

func TestCheckFFmpegReadsVersion(t *testing.T) {
	stub := writeScript(t, t.TempDir(), "ffmpeg", "echo 'ffmpeg version n7.1 Copyright (c) 2000-2024 the FFmpeg developers'\n")
	status := CheckFFmpeg(context.Background(), stub)
	if !status.Available {
		t.Fatalf("expected ffmpeg to be available: %#v", status)
	}
	if status.Version != "n7.1" {
		t.Fatalf("version = %q", status.Version)
	}
}

func TestCheckFFmpegFromPath(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "ffmpeg", "exit 3\n")
	t.Setenv("PATH", dir)

	status := CheckFFmpeg(context.Background(), "ffmpeg")
	if !status.Available {
		t.Fatalf("expected PATH lookup to succeed: %#v", status)
	}
	if status.Path != filepath.Join(dir, "ffmpeg") {
		t.Fatalf("path = %q", status.Path)
	}
	if status.Version != "" || status.Detail == "" {
		t.Fatalf("failing version check should leave detail: %#v", status)
	}
}

func TestCheckFFmpegMissing(t *testing.T) {
	status := CheckFFmpeg(context.Background(), filepath.Join(t.TempDir(), "ffmpeg"))
	if status.Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if status.Name != "FFmpeg" || status.Description == "" {
		t.Fatalf("unexpected requirement metadata: %#v", status)
	}
}
