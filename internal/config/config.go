package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Relocation modes understood by the relocation engine.
const (
	ModeMove = "move"
	ModeCopy = "copy"
)

// FieldPlaylistTitle is the metadata field whose values carry the
// auto-generated uploads playlist prefix.
const FieldPlaylistTitle = "playlist_title"

// Paths contains the on-disk locations a run reads and writes.
type Paths struct {
	StageDir    string `toml:"stage_dir"`
	QueueFile   string `toml:"queue_file"`
	ArchiveFile string `toml:"archive_file"`
	LockFile    string `toml:"lock_file"`
	LogDir      string `toml:"log_dir"`
}

// Fetch contains configuration for the media fetch engine (yt-dlp).
type Fetch struct {
	Binary           string `toml:"binary"`
	Format           string `toml:"format"`
	OutputTemplate   string `toml:"output_template"`
	DirectoryField   string `toml:"directory_field"`
	DirectoryDefault string `toml:"directory_default"`
	StripPrefix      string `toml:"strip_prefix"`
	SkipOnFail       bool   `toml:"skip_on_fail"`
	Lowercase        bool   `toml:"lowercase"`
	XAttrs           bool   `toml:"xattrs"`
	XAttrTool        string `toml:"xattr_tool"`
}

// Subtitles contains subtitle download settings passed to the fetch engine.
type Subtitles struct {
	Enabled   bool     `toml:"enabled"`
	Languages []string `toml:"languages"`
	Format    string   `toml:"format"`
	Manual    bool     `toml:"manual"`
	Automatic bool     `toml:"automatic"`
}

// Relocate contains configuration for the remote relocation engine (rclone).
type Relocate struct {
	Binary      string   `toml:"binary"`
	Mode        string   `toml:"mode"`
	Destination string   `toml:"destination"`
	Config      string   `toml:"config"`
	Flags       []string `toml:"flags"`
	MinVersion  string   `toml:"min_version"`
}

// Preflight contains environment validation settings.
type Preflight struct {
	RequiredTools []string `toml:"required_tools"`
}

// Lock contains single-instance guard settings.
type Lock struct {
	ReclaimStale bool `toml:"reclaim_stale"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tubesync.
//
// Configuration sections by subsystem:
//   - Paths: staging, queue, ledger, lock, and log locations
//   - Fetch: yt-dlp binary, format, directory key resolution
//   - Subtitles: optional subtitle flags for downloads
//   - Relocate: rclone binary, mode, destination, and version floor
//   - Preflight: additional tools that must be on PATH
//   - Lock: stale marker handling
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Fetch     Fetch     `toml:"fetch"`
	Subtitles Subtitles `toml:"subtitles"`
	Relocate  Relocate  `toml:"relocate"`
	Preflight Preflight `toml:"preflight"`
	Lock      Lock      `toml:"lock"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		if value, ok := os.LookupEnv("TUBESYNC_CONFIG"); ok {
			path = strings.TrimSpace(value)
		}
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tubesync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ItemStageDir returns the local staging directory for a directory key.
func (c *Config) ItemStageDir(key string) string {
	return filepath.Join(c.Paths.StageDir, key)
}

// RemoteDir returns the relocation destination for a directory key.
func (c *Config) RemoteDir(key string) string {
	return JoinRemote(c.Relocate.Destination, key)
}

// JoinRemote appends a path segment to an rclone-style destination. A bare
// remote ("name:") or a trailing slash is extended without inserting a
// separator so the result never becomes "name:/segment".
func JoinRemote(destination, segment string) string {
	segment = strings.Trim(segment, "/")
	if segment == "" {
		return destination
	}
	if destination == "" {
		return segment
	}
	if strings.HasSuffix(destination, ":") || strings.HasSuffix(destination, "/") {
		return destination + segment
	}
	return destination + "/" + segment
}

// RemoteRoot returns the part of the destination used by the reachability
// probe: the remote name for rclone remotes ("name:") or the destination
// itself for local paths.
func (c *Config) RemoteRoot() string {
	dest := c.Relocate.Destination
	if idx := strings.Index(dest, ":"); idx > 0 && !filepath.IsAbs(dest) {
		return dest[:idx+1]
	}
	return dest
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
