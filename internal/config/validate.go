package config

import (
	"errors"
	"fmt"
	"strings"

	"tubesync/internal/version"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateRelocate(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.stage_dir":    c.Paths.StageDir,
		"paths.queue_file":   c.Paths.QueueFile,
		"paths.archive_file": c.Paths.ArchiveFile,
		"paths.lock_file":    c.Paths.LockFile,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.DirectoryDefault == "" {
		return errors.New("fetch.directory_default must be set")
	}
	if strings.ContainsAny(c.Fetch.DirectoryDefault, `/\`) || c.Fetch.DirectoryDefault == ".." || c.Fetch.DirectoryDefault == "." {
		return fmt.Errorf("fetch.directory_default %q must be a single path segment", c.Fetch.DirectoryDefault)
	}
	if c.Fetch.XAttrs && strings.TrimSpace(c.Fetch.XAttrTool) == "" {
		return errors.New("fetch.xattr_tool must be set when fetch.xattrs is true")
	}
	if c.Subtitles.Enabled && !c.Subtitles.Manual && !c.Subtitles.Automatic {
		return errors.New("subtitles.manual or subtitles.automatic must be true when subtitles.enabled is true")
	}
	return nil
}

func (c *Config) validateRelocate() error {
	switch c.Relocate.Mode {
	case ModeMove, ModeCopy:
	default:
		return fmt.Errorf("relocate.mode must be %q or %q, got %q", ModeMove, ModeCopy, c.Relocate.Mode)
	}
	if c.Relocate.Destination == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("relocate.destination is required. Set TUBESYNC_DESTINATION or edit %s (create with 'tubesync config init')", defaultPath)
	}
	if _, err := version.Parse(c.Relocate.MinVersion); err != nil {
		return fmt.Errorf("relocate.min_version: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
