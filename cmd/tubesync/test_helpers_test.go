package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tubesync/internal/config"
	"tubesync/internal/testsupport"
)

const rcloneScript = `case "$1" in
  version) echo "rclone v1.65.0" ;;
  lsd) exit 0 ;;
  move|copy) rm -f "$2"/* 2>/dev/null ;;
esac
exit 0`

const ytdlpScript = `for arg in "$@"; do
  if [ "$arg" = "--get-filename" ]; then
    echo "Uploads_from_Test_Channel"
    exit 0
  fi
done
exit 0`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := []testsupport.ConfigOption{
		testsupport.WithIsolatedPath(),
		testsupport.WithStubbedBinaries(),
		testsupport.WithScript("rclone", rcloneScript),
		testsupport.WithScript("yt-dlp", ytdlpScript),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	baseDir := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(baseDir, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TUBESYNC_CONFIG", "")
	t.Setenv("TUBESYNC_DESTINATION", "")
	t.Setenv("TUBESYNC_LOG_LEVEL", "")
	t.Setenv("RCLONE_CONFIG", "")
	t.Setenv("NO_COLOR", "1")

	configPath := filepath.Join(baseDir, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: baseDir}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
