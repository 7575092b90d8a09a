package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tubesync/internal/config"
)

func TestLoadDefaultConfigUsesEnvDestinationAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TUBESYNC_CONFIG", "")
	t.Setenv("TUBESYNC_DESTINATION", "archive:videos")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStage := filepath.Join(tempHome, ".local", "share", "tubesync", "stage")
	if cfg.Paths.StageDir != wantStage {
		t.Fatalf("unexpected stage dir: got %q want %q", cfg.Paths.StageDir, wantStage)
	}
	if cfg.Paths.QueueFile != filepath.Join(tempHome, ".config", "tubesync", "queue.txt") {
		t.Fatalf("unexpected queue file: %q", cfg.Paths.QueueFile)
	}
	if cfg.Relocate.Destination != "archive:videos" {
		t.Fatalf("expected destination from env, got %q", cfg.Relocate.Destination)
	}
	if cfg.Relocate.Mode != config.ModeMove {
		t.Fatalf("expected move mode by default, got %q", cfg.Relocate.Mode)
	}
	if cfg.Fetch.DirectoryDefault != "NA" {
		t.Fatalf("unexpected directory default: %q", cfg.Fetch.DirectoryDefault)
	}
	if cfg.Fetch.DirectoryField != config.FieldPlaylistTitle {
		t.Fatalf("unexpected directory field: %q", cfg.Fetch.DirectoryField)
	}
	if cfg.Fetch.SkipOnFail || cfg.Fetch.Lowercase || cfg.Fetch.XAttrs {
		t.Fatal("expected optional fetch behaviour disabled by default")
	}
	if cfg.Subtitles.Enabled {
		t.Fatal("expected subtitles disabled by default")
	}
	if cfg.Lock.ReclaimStale {
		t.Fatal("expected stale lock reclaim disabled by default")
	}
}

func TestLoadRequiresDestination(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TUBESYNC_CONFIG", "")
	t.Setenv("TUBESYNC_DESTINATION", "")
	t.Chdir(t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error without destination")
	}
	if !strings.Contains(err.Error(), "relocate.destination") {
		t.Fatalf("expected destination error, got %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tubesync.toml")
	t.Setenv("TUBESYNC_DESTINATION", "")
	t.Setenv("RCLONE_CONFIG", "")

	type payload struct {
		Paths struct {
			StageDir string `toml:"stage_dir"`
		} `toml:"paths"`
		Fetch struct {
			SkipOnFail bool `toml:"skip_on_fail"`
			Lowercase  bool `toml:"lowercase"`
		} `toml:"fetch"`
		Relocate struct {
			Mode        string   `toml:"mode"`
			Destination string   `toml:"destination"`
			Flags       []string `toml:"flags"`
		} `toml:"relocate"`
	}
	custom := payload{}
	custom.Paths.StageDir = filepath.Join(tempDir, "stage")
	custom.Fetch.SkipOnFail = true
	custom.Fetch.Lowercase = true
	custom.Relocate.Mode = "COPY"
	custom.Relocate.Destination = "gdrive:"
	custom.Relocate.Flags = []string{" --transfers=2 ", ""}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.StageDir != custom.Paths.StageDir {
		t.Fatalf("unexpected stage dir: %q", cfg.Paths.StageDir)
	}
	if !cfg.Fetch.SkipOnFail || !cfg.Fetch.Lowercase {
		t.Fatal("expected fetch toggles from file")
	}
	if cfg.Relocate.Mode != config.ModeCopy {
		t.Fatalf("expected mode to be lower-cased copy, got %q", cfg.Relocate.Mode)
	}
	if len(cfg.Relocate.Flags) != 1 || cfg.Relocate.Flags[0] != "--transfers=2" {
		t.Fatalf("unexpected flags: %#v", cfg.Relocate.Flags)
	}
	if got := cfg.RemoteDir("Channel"); got != "gdrive:Channel" {
		t.Fatalf("unexpected remote dir: %q", got)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tubesync.toml")
	content := "[relocate]\ndestination = \"r:\"\nbogus = 1\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestRcloneConfigEnvFallback(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tubesync.toml")
	if err := os.WriteFile(configPath, []byte("[relocate]\ndestination = \"r:x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	rcloneConf := filepath.Join(tempDir, "rclone.conf")
	t.Setenv("RCLONE_CONFIG", rcloneConf)
	t.Setenv("TUBESYNC_DESTINATION", "")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Relocate.Config != rcloneConf {
		t.Fatalf("expected rclone config from env, got %q", cfg.Relocate.Config)
	}
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Relocate.Destination = "remote:archive"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "defaults ok", mutate: func(*config.Config) {}},
		{name: "bad mode", mutate: func(c *config.Config) { c.Relocate.Mode = "sync" }, wantErr: "relocate.mode"},
		{name: "missing destination", mutate: func(c *config.Config) { c.Relocate.Destination = "" }, wantErr: "relocate.destination"},
		{name: "bad min version", mutate: func(c *config.Config) { c.Relocate.MinVersion = "latest" }, wantErr: "relocate.min_version"},
		{name: "default with separator", mutate: func(c *config.Config) { c.Fetch.DirectoryDefault = "a/b" }, wantErr: "single path segment"},
		{name: "empty default", mutate: func(c *config.Config) { c.Fetch.DirectoryDefault = "" }, wantErr: "fetch.directory_default"},
		{name: "subtitles without kind", mutate: func(c *config.Config) {
			c.Subtitles.Enabled = true
			c.Subtitles.Manual = false
			c.Subtitles.Automatic = false
		}, wantErr: "subtitles.manual"},
		{name: "bad level", mutate: func(c *config.Config) { c.Logging.Level = "trace" }, wantErr: "logging.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestJoinRemote(t *testing.T) {
	tests := []struct {
		dest, segment, want string
	}{
		{"remote:", "Chan", "remote:Chan"},
		{"remote:archive", "Chan", "remote:archive/Chan"},
		{"remote:archive/", "Chan", "remote:archive/Chan"},
		{"/mnt/backup", "Chan", "/mnt/backup/Chan"},
		{"remote:archive", "", "remote:archive"},
	}
	for _, tc := range tests {
		if got := config.JoinRemote(tc.dest, tc.segment); got != tc.want {
			t.Fatalf("JoinRemote(%q, %q) = %q, want %q", tc.dest, tc.segment, got, tc.want)
		}
	}
}

func TestRemoteRoot(t *testing.T) {
	cfg := config.Default()
	cfg.Relocate.Destination = "remote:archive/videos"
	if got := cfg.RemoteRoot(); got != "remote:" {
		t.Fatalf("unexpected remote root %q", got)
	}
	cfg.Relocate.Destination = "/mnt/backup"
	if got := cfg.RemoteRoot(); got != "/mnt/backup" {
		t.Fatalf("unexpected local root %q", got)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TUBESYNC_DESTINATION", "remote:archive")
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Relocate.Binary != "rclone" || cfg.Fetch.Binary != "yt-dlp" {
		t.Fatalf("unexpected binaries: %q %q", cfg.Relocate.Binary, cfg.Fetch.Binary)
	}
}
