package rclone

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tubesync/internal/command"
	"tubesync/internal/config"
	"tubesync/internal/logging"
	"tubesync/internal/services"
	"tubesync/internal/version"
)

// Settings captures the invocation shape shared by every rclone call.
type Settings struct {
	Binary string
	Mode   string
	// Config is an optional rclone.conf path passed with --config.
	Config string
	// Flags are appended verbatim to relocation commands.
	Flags []string
}

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

// Client wraps rclone CLI interactions.
type Client struct {
	settings Settings
	exec     command.Executor
	logger   *slog.Logger
}

// New constructs an rclone client.
func New(settings Settings, opts ...Option) (*Client, error) {
	settings.Binary = strings.TrimSpace(settings.Binary)
	if settings.Binary == "" {
		return nil, errors.New("rclone binary required")
	}
	switch settings.Mode {
	case "":
		settings.Mode = config.ModeMove
	case config.ModeMove, config.ModeCopy:
	default:
		return nil, errors.New("rclone mode must be move or copy")
	}
	settings.Flags = append([]string(nil), settings.Flags...)
	client := &Client{
		settings: settings,
		exec:     command.New(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.settings.Binary
}

// Mode returns the relocation mode.
func (c *Client) Mode() string {
	return c.settings.Mode
}

// Args builds the relocation argument vector, without the binary.
func (c *Client) Args(source, destination string) []string {
	args := []string{c.settings.Mode, source, destination}
	args = append(args, c.configArgs()...)
	return append(args, c.settings.Flags...)
}

// Command builds the full relocation argv including the binary.
func (c *Client) Command(source, destination string) []string {
	return append([]string{c.settings.Binary}, c.Args(source, destination)...)
}

func (c *Client) configArgs() []string {
	if c.settings.Config == "" {
		return nil
	}
	return []string{"--config", c.settings.Config}
}

// Relocate moves or copies source to destination according to the mode.
func (c *Client) Relocate(ctx context.Context, source, destination string) error {
	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("rclone relocation starting",
		logging.String("mode", c.settings.Mode),
		logging.String("source", source),
		logging.String("destination", destination),
	)
	err := c.exec.Run(ctx, c.settings.Binary, c.Args(source, destination), func(line string) {
		logger.Debug("rclone", logging.String("line", line))
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "relocate", "rclone "+c.settings.Mode, source, err)
	}
	return nil
}

// Probe lists the top-level directories of remote. Only the exit status is
// significant.
func (c *Client) Probe(ctx context.Context, remote string) error {
	args := append([]string{"lsd", remote}, c.configArgs()...)
	if _, err := c.exec.Output(ctx, c.settings.Binary, args); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrUnreachable, "preflight", "rclone lsd", remote, err)
	}
	return nil
}

// Version returns the version token reported by `rclone version`, for example
// "v1.65.0".
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.exec.Output(ctx, c.settings.Binary, []string{"version"})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrExternalTool, "preflight", "rclone version", "", err)
	}
	token, err := version.FromToolOutput(out)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "preflight", "rclone version", "parse output", err)
	}
	return token, nil
}
