package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"tubesync/internal/config"
	"tubesync/internal/logging"
	"tubesync/internal/preflight"
	"tubesync/internal/ytdlp"
)

// Downloader fetches a source URL into the staging area.
type Downloader interface {
	Download(ctx context.Context, opts ytdlp.DownloadOptions) error
}

// Relocator moves or copies staged media to the remote.
type Relocator interface {
	Relocate(ctx context.Context, source, destination string) error
	Command(source, destination string) []string
	Mode() string
}

// Outcome records what happened to one entry.
type Outcome struct {
	Key         string
	StageDir    string
	Destination string

	DownloadErr error
	// Swept reports whether the staging directory existed after download and
	// was handed to the relocator.
	Swept       bool
	RelocateErr error
	// Cleaned reports whether the emptied staging directory was removed.
	Cleaned  bool
	CleanErr error
}

// Failed reports whether any engine step failed.
func (o Outcome) Failed() bool {
	return o.DownloadErr != nil || o.RelocateErr != nil || o.CleanErr != nil
}

// Processor runs the per-entry download and relocation steps.
type Processor struct {
	cfg        *config.Config
	caps       preflight.Capabilities
	downloader Downloader
	relocator  Relocator
	logger     *slog.Logger
}

// NewProcessor constructs a processor. Capabilities come from the validator
// and are fixed for the run.
func NewProcessor(cfg *config.Config, caps preflight.Capabilities, downloader Downloader, relocator Relocator, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:        cfg,
		caps:       caps,
		downloader: downloader,
		relocator:  relocator,
		logger:     logging.NewComponentLogger(logger, "archive"),
	}
}

// HookDestination is the per-file relocation target for key. The trailing
// slash makes rclone treat it as a directory.
func (p *Processor) HookDestination(key string) string {
	return p.cfg.RemoteDir(key) + "/"
}

// Options builds the download options for key and url.
func (p *Processor) Options(key, url string) ytdlp.DownloadOptions {
	opts := ytdlp.DownloadOptions{
		URL:            url,
		Archive:        p.cfg.Paths.ArchiveFile,
		Format:         p.cfg.Fetch.Format,
		OutputDir:      p.cfg.ItemStageDir(key),
		OutputTemplate: p.cfg.Fetch.OutputTemplate,
		XAttrs:         p.caps.XAttrs,
		Hook:           p.relocator.Command(ytdlp.HookPlaceholder, p.HookDestination(key)),
	}
	if subs := p.cfg.Subtitles; subs.Enabled {
		opts.Subtitles = &ytdlp.SubtitleOptions{
			Languages: subs.Languages,
			Format:    subs.Format,
			Manual:    subs.Manual,
			Automatic: subs.Automatic,
		}
	}
	return opts
}

// Process downloads url into the staging directory for key, sweeps leftovers
// to the remote, and prunes the directory in move mode.
func (p *Processor) Process(ctx context.Context, key, url string) Outcome {
	logger := logging.WithContext(ctx, p.logger)
	outcome := Outcome{
		Key:         key,
		StageDir:    p.cfg.ItemStageDir(key),
		Destination: p.cfg.RemoteDir(key),
	}

	if err := p.downloader.Download(ctx, p.Options(key, url)); err != nil {
		outcome.DownloadErr = err
		logger.Debug("download finished with errors",
			logging.String("url", url),
			logging.Error(err),
		)
	}
	if ctx.Err() != nil {
		return outcome
	}

	exists, err := dirExists(outcome.StageDir)
	if err != nil {
		outcome.RelocateErr = err
		logger.Debug("staging directory unreadable", logging.String("dir", outcome.StageDir), logging.Error(err))
		return outcome
	}
	if !exists {
		logger.Debug("nothing staged", logging.String("dir", outcome.StageDir))
		return outcome
	}

	outcome.Swept = true
	if err := p.relocator.Relocate(ctx, outcome.StageDir, outcome.Destination); err != nil {
		outcome.RelocateErr = err
		logger.Debug("relocation finished with errors",
			logging.String("source", outcome.StageDir),
			logging.String("destination", outcome.Destination),
			logging.Error(err),
		)
	}
	if ctx.Err() != nil {
		return outcome
	}

	if p.relocator.Mode() != config.ModeMove {
		return outcome
	}
	cleaned, err := removeIfEmpty(outcome.StageDir)
	if err != nil {
		outcome.CleanErr = err
		logger.Debug("staging cleanup failed", logging.String("dir", outcome.StageDir), logging.Error(err))
	}
	outcome.Cleaned = cleaned
	return outcome
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat staging directory: %w", err)
	}
	return info.IsDir(), nil
}

// removeIfEmpty removes dir when it has no entries.
func removeIfEmpty(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open staging directory: %w", err)
	}
	_, err = f.Readdirnames(1)
	f.Close()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read staging directory: %w", err)
	}
	if err := os.Remove(dir); err != nil {
		return false, fmt.Errorf("remove staging directory: %w", err)
	}
	return true, nil
}
