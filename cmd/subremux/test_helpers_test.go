package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subremux/internal/config"
	"subremux/internal/daemon"
	"subremux/internal/logging"
	"subremux/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	configPath string
	serverURL  string
	baseDir    string
}

type testConfigOptions struct {
	token string
}

func setupCLITestEnv(t *testing.T, opts testConfigOptions) *cliTestEnv {
	t.Helper()

	seed := testsupport.NewConfig(t)
	base := testsupport.BaseDir(seed)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("SUBREMUX_API_TOKEN", "")
	t.Setenv("SUBREMUX_FFMPEG", "")
	if err := os.MkdirAll(filepath.Join(seed.Paths.MediaDir, "Shows"), 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, map[string]string{
		"media_dir":  seed.Paths.MediaDir,
		"upload_dir": seed.Paths.UploadDir,
		"log_dir":    seed.Paths.LogDir,
		"api_bind":   seed.Paths.APIBind,
		"api_token":  opts.token,
	}, seed.FFmpeg.Binary)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		configPath: configPath,
		serverURL:  "http://" + d.Addr(),
		baseDir:    base,
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, env.serverURL, env.configPath)
}

func runCLI(t *testing.T, args []string, server, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if server != "" {
		flags = append(flags, "--server", server)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, paths map[string]string, ffmpeg string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("[paths]\n")
	for _, key := range []string{"media_dir", "upload_dir", "log_dir", "api_bind", "api_token"} {
		fmt.Fprintf(&b, "%s = %q\n", key, paths[key])
	}
	fmt.Fprintf(&b, "\n[ffmpeg]\nbinary = %q\nprogress_interval = 1\n", ffmpeg)
	fmt.Fprintf(&b, "\n[logging]\nretention_days = 0\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeMedia(t *testing.T, env *cliTestEnv, rel string, data []byte) string {
	t.Helper()
	return testsupport.WriteMedia(t, env.cfg, rel, data)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
