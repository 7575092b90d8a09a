package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubesync/internal/config"
)

// DefaultBinaries are the external tools a default config needs on PATH.
var DefaultBinaries = []string{"yt-dlp", "rclone", "ffmpeg"}

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StageDir = filepath.Join(base, "stage")
	cfgVal.Paths.QueueFile = filepath.Join(base, "queue.txt")
	cfgVal.Paths.ArchiveFile = filepath.Join(base, "archive.txt")
	cfgVal.Paths.LockFile = filepath.Join(base, "state", "tubesync.lock")
	cfgVal.Paths.LogDir = ""
	cfgVal.Relocate.Destination = "remote:archive"
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithConfig applies an arbitrary mutation to the test config.
func WithConfig(mutate func(*config.Config)) ConfigOption {
	return func(b *configBuilder) {
		mutate(b.cfg)
	}
}

// WithQueue writes the queue file with one line per argument.
func WithQueue(lines ...string) ConfigOption {
	return func(b *configBuilder) {
		WriteLines(b.t, b.cfg.Paths.QueueFile, lines...)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, DefaultBinaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = DefaultBinaries
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithScript writes an executable named name whose shell body is body and
// prepends its directory to PATH.
func WithScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			b.t.Fatalf("write script %s: %v", name, err)
		}
		path := os.Getenv("PATH")
		if !strings.HasPrefix(path, binDir+string(os.PathListSeparator)) && path != binDir {
			b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+path)
		}
	}
}

// WithIsolatedPath replaces PATH with an empty directory so only stubs added
// afterwards resolve.
func WithIsolatedPath() ConfigOption {
	return func(b *configBuilder) {
		empty := filepath.Join(b.baseDir, "empty-path")
		if err := os.MkdirAll(empty, 0o755); err != nil {
			b.t.Fatalf("mkdir empty path: %v", err)
		}
		b.t.Setenv("PATH", empty)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StageDir)
}

// WriteLines writes lines to path, newline terminated.
func WriteLines(t testing.TB, path string, lines ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
