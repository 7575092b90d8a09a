package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizeSubtitles()
	if err := c.normalizeRelocate(); err != nil {
		return err
	}
	c.normalizePreflight()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StageDir, err = expandPath(orDefault(c.Paths.StageDir, defaultStageDir)); err != nil {
		return fmt.Errorf("paths.stage_dir: %w", err)
	}
	if c.Paths.QueueFile, err = expandPath(orDefault(c.Paths.QueueFile, defaultQueueFile)); err != nil {
		return fmt.Errorf("paths.queue_file: %w", err)
	}
	if c.Paths.ArchiveFile, err = expandPath(orDefault(c.Paths.ArchiveFile, defaultArchiveFile)); err != nil {
		return fmt.Errorf("paths.archive_file: %w", err)
	}
	if c.Paths.LockFile, err = expandPath(orDefault(c.Paths.LockFile, defaultLockFile)); err != nil {
		return fmt.Errorf("paths.lock_file: %w", err)
	}
	// An empty log_dir disables the log file.
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFetch() {
	c.Fetch.Binary = orDefault(c.Fetch.Binary, defaultFetchBinary)
	c.Fetch.Format = orDefault(c.Fetch.Format, defaultFetchFormat)
	c.Fetch.OutputTemplate = orDefault(c.Fetch.OutputTemplate, defaultOutputTemplate)
	c.Fetch.DirectoryField = orDefault(c.Fetch.DirectoryField, defaultDirectoryField)
	c.Fetch.DirectoryDefault = strings.TrimSpace(c.Fetch.DirectoryDefault)
	c.Fetch.XAttrTool = orDefault(c.Fetch.XAttrTool, defaultXAttrTool)
}

func (c *Config) normalizeSubtitles() {
	langs := make([]string, 0, len(c.Subtitles.Languages))
	seen := make(map[string]struct{}, len(c.Subtitles.Languages))
	for _, lang := range c.Subtitles.Languages {
		normalized := strings.TrimSpace(lang)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		langs = append(langs, normalized)
	}
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	c.Subtitles.Languages = langs
	c.Subtitles.Format = orDefault(c.Subtitles.Format, defaultSubtitleFormat)
}

func (c *Config) normalizeRelocate() error {
	c.Relocate.Binary = orDefault(c.Relocate.Binary, defaultRelocateBinary)
	c.Relocate.Mode = strings.ToLower(orDefault(c.Relocate.Mode, defaultRelocateMode))
	c.Relocate.MinVersion = orDefault(c.Relocate.MinVersion, defaultRelocateMinimum)
	if value, ok := os.LookupEnv("TUBESYNC_DESTINATION"); ok && strings.TrimSpace(value) != "" {
		c.Relocate.Destination = strings.TrimSpace(value)
	}
	c.Relocate.Destination = strings.TrimSpace(c.Relocate.Destination)

	c.Relocate.Config = strings.TrimSpace(c.Relocate.Config)
	if c.Relocate.Config == "" {
		if value, ok := os.LookupEnv("RCLONE_CONFIG"); ok {
			c.Relocate.Config = strings.TrimSpace(value)
		}
	}
	if c.Relocate.Config != "" {
		var err error
		if c.Relocate.Config, err = expandPath(c.Relocate.Config); err != nil {
			return fmt.Errorf("relocate.config: %w", err)
		}
	}

	flags := make([]string, 0, len(c.Relocate.Flags))
	for _, flag := range c.Relocate.Flags {
		if trimmed := strings.TrimSpace(flag); trimmed != "" {
			flags = append(flags, trimmed)
		}
	}
	c.Relocate.Flags = flags
	return nil
}

func (c *Config) normalizePreflight() {
	tools := make([]string, 0, len(c.Preflight.RequiredTools))
	for _, tool := range c.Preflight.RequiredTools {
		if trimmed := strings.TrimSpace(tool); trimmed != "" {
			tools = append(tools, trimmed)
		}
	}
	c.Preflight.RequiredTools = tools
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json", "auto":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("TUBESYNC_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
