package workflow

import (
	"log/slog"

	"tubesync/internal/command"
	"tubesync/internal/config"
	"tubesync/internal/rclone"
	"tubesync/internal/services"
	"tubesync/internal/ytdlp"
)

// Clients bundles the external engine wrappers for a config.
type Clients struct {
	Fetcher   *ytdlp.Client
	Relocator *rclone.Client
}

// NewClients builds the yt-dlp and rclone clients. A nil executor runs real
// subprocesses.
func NewClients(cfg *config.Config, exec command.Executor, logger *slog.Logger) (Clients, error) {
	if exec == nil {
		exec = command.New()
	}
	fetcher, err := ytdlp.New(cfg.Fetch.Binary,
		ytdlp.WithExecutor(exec),
		ytdlp.WithLogger(logger),
	)
	if err != nil {
		return Clients{}, services.Wrap(services.ErrConfiguration, "setup", "yt-dlp", "", err)
	}
	relocator, err := rclone.New(rclone.Settings{
		Binary: cfg.Relocate.Binary,
		Mode:   cfg.Relocate.Mode,
		Config: cfg.Relocate.Config,
		Flags:  cfg.Relocate.Flags,
	},
		rclone.WithExecutor(exec),
		rclone.WithLogger(logger),
	)
	if err != nil {
		return Clients{}, services.Wrap(services.ErrConfiguration, "setup", "rclone", "", err)
	}
	return Clients{Fetcher: fetcher, Relocator: relocator}, nil
}
