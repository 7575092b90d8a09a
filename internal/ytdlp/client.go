package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"tubesync/internal/command"
	"tubesync/internal/logging"
	"tubesync/internal/services"
)

// HookPlaceholder is substituted by yt-dlp with the path of each finished file.
const HookPlaceholder = "{}"

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec command.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger for subprocess output at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary string
	exec   command.Executor
	logger *slog.Logger
}

// New constructs a yt-dlp client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary: binary,
		exec:   command.New(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.binary
}

// ResolveArgs builds the argument vector that prints a single metadata field
// for one playlist index without downloading anything.
func ResolveArgs(field string, index int, url string) []string {
	return []string{
		"--force-ipv4",
		"--skip-download",
		"--restrict-filenames",
		"--playlist-items", strconv.Itoa(index),
		"--get-filename",
		"--output", "%(" + field + ")s",
		url,
	}
}

// ResolveField returns the value of field for the item at index within url.
// The first non-empty output line is returned; empty output is not an error.
func (c *Client) ResolveField(ctx context.Context, field string, index int, url string) (string, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", errors.New("metadata field required")
	}
	if index < 1 {
		return "", fmt.Errorf("playlist index must be positive, got %d", index)
	}
	out, err := c.exec.Output(ctx, c.binary, ResolveArgs(field, index, url))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrExternalTool, "resolve", "yt-dlp", "extract "+field, err)
	}
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", nil
}

// SubtitleOptions selects subtitle sidecars.
type SubtitleOptions struct {
	Languages []string
	Format    string
	Manual    bool
	Automatic bool
}

// DownloadOptions describes one full download of a source URL.
type DownloadOptions struct {
	URL string
	// Archive is the completion ledger shared by every download.
	Archive string
	Format  string
	// OutputDir is the staging directory for this directory key.
	OutputDir      string
	OutputTemplate string
	Subtitles      *SubtitleOptions
	XAttrs         bool
	// Hook is the argument vector run for every finished file. An element
	// equal to HookPlaceholder marks where the file path goes.
	Hook []string
}

// EscapeTemplate protects literal percent signs from yt-dlp's output
// template expansion.
func EscapeTemplate(value string) string {
	return strings.ReplaceAll(value, "%", "%%")
}

// HookCommand renders a hook argument vector as the command string yt-dlp
// passes to the shell. yt-dlp expands the string as an output template, so
// '%' is escaped in every word. Every word is quoted except HookPlaceholder,
// which yt-dlp replaces with the already quoted file path.
func HookCommand(argv []string) string {
	words := make([]string, 0, len(argv))
	for _, arg := range argv {
		if arg == HookPlaceholder {
			words = append(words, arg)
			continue
		}
		words = append(words, shellquote.Join(EscapeTemplate(arg)))
	}
	return strings.Join(words, " ")
}

// DownloadArgs translates options into the yt-dlp argument vector.
func DownloadArgs(opts DownloadOptions) ([]string, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("download url required")
	}
	if strings.TrimSpace(opts.Archive) == "" {
		return nil, errors.New("download archive required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, errors.New("output directory required")
	}
	template := opts.OutputTemplate
	if template == "" {
		template = "%(title)s [%(id)s].%(ext)s"
	}

	args := []string{"--continue", "--download-archive", opts.Archive}
	if opts.Format != "" {
		args = append(args, "--format", opts.Format)
	}
	args = append(args,
		"--output", filepath.Join(EscapeTemplate(opts.OutputDir), template),
		"--ignore-errors",
		"--no-overwrites",
		"--write-description",
		"--write-info-json",
		"--write-thumbnail",
	)
	if subs := opts.Subtitles; subs != nil && (subs.Manual || subs.Automatic) {
		if subs.Manual {
			args = append(args, "--write-subs")
		}
		if subs.Automatic {
			args = append(args, "--write-auto-subs")
		}
		if len(subs.Languages) > 0 {
			args = append(args, "--sub-langs", strings.Join(subs.Languages, ","))
		}
		if subs.Format != "" {
			args = append(args, "--sub-format", subs.Format)
		}
	}
	if opts.XAttrs {
		args = append(args, "--xattrs")
	}
	if hook := HookCommand(opts.Hook); hook != "" {
		args = append(args, "--exec", hook)
	}
	args = append(args, opts.URL)
	return args, nil
}

// Download runs yt-dlp for the whole URL. Output lines are logged at debug
// level. A non-zero exit is returned as an ErrExternalTool error; callers
// decide whether it matters.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) error {
	args, err := DownloadArgs(opts)
	if err != nil {
		return services.Wrap(services.ErrValidation, "download", "yt-dlp", "build arguments", err)
	}
	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("yt-dlp download starting",
		logging.String("url", opts.URL),
		logging.String("output_dir", opts.OutputDir),
	)
	err = c.exec.Run(ctx, c.binary, args, func(line string) {
		logger.Debug("yt-dlp", logging.String("line", line))
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "download", "yt-dlp", opts.URL, err)
	}
	return nil
}
