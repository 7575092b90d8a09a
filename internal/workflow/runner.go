package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tubesync/internal/archive"
	"tubesync/internal/command"
	"tubesync/internal/config"
	"tubesync/internal/lock"
	"tubesync/internal/logging"
	"tubesync/internal/metadata"
	"tubesync/internal/preflight"
	"tubesync/internal/queuefile"
	"tubesync/internal/services"
)

// Stage names stamped on log lines.
const (
	StagePreflight = "preflight"
	StageResolve   = "resolve"
	StageArchive   = "archive"
)

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Entries   int
	Processed int
	Skipped   int
	// Failed counts processed entries with at least one engine failure.
	Failed      int
	Interrupted bool
	// Deferred is set when another instance held the lock.
	Deferred bool
	Duration time.Duration
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithExecutor routes every subprocess through exec (primarily for tests).
func WithExecutor(exec command.Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// Runner executes batch runs for one configuration.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	exec   command.Executor
	runID  string

	clients    Clients
	validator  *preflight.Validator
	resolver   *metadata.Resolver
	normalizer *metadata.Normalizer
}

// New wires a runner and its engine clients.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "runner", "config required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:    cfg,
		logger: logger,
		exec:   command.New(),
	}
	for _, opt := range opts {
		opt(r)
	}

	clients, err := NewClients(cfg, r.exec, logger)
	if err != nil {
		return nil, err
	}
	r.clients = clients
	r.validator = preflight.NewValidator(cfg, clients.Relocator, logger)
	r.resolver = metadata.NewResolver(clients.Fetcher, cfg.Fetch, logger)
	r.normalizer = metadata.NewNormalizer(cfg.Fetch)
	return r, nil
}

// Run performs one batch run. A held lock and an interrupt are not errors.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: r.runID}
	if summary.RunID == "" {
		summary.RunID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.logger, "workflow"))

	lk, err := lock.AcquireWithOptions(r.cfg.Paths.LockFile, lock.AcquireOptions{ReclaimStale: r.cfg.Lock.ReclaimStale})
	if errors.Is(err, lock.ErrHeld) {
		logger.Info("another instance is running; deferring",
			logging.String("lock", r.cfg.Paths.LockFile),
			logging.String(logging.FieldEventType, "run_deferred"),
		)
		summary.Deferred = true
		return summary, nil
	}
	if err != nil {
		logger.Error("lock acquisition failed", logging.Error(err))
		return summary, err
	}
	defer lk.Release(logger)

	caps, _, err := r.validator.Run(services.WithStage(ctx, StagePreflight))
	if err != nil {
		if ctx.Err() != nil {
			return r.interrupted(logger, summary, start), nil
		}
		logger.Error("preflight failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "preflight_failed"),
		)
		return summary, err
	}
	logger.Debug("preflight passed", logging.Bool("xattrs", caps.XAttrs))

	stream, err := queuefile.Open(ctx, r.cfg.Paths.QueueFile)
	if err != nil {
		err = services.Wrap(services.ErrConfiguration, "queue", "open", r.cfg.Paths.QueueFile, err)
		logger.Error("queue unavailable", logging.Error(err))
		return summary, err
	}
	defer stream.Close()

	processor := archive.NewProcessor(r.cfg, caps, r.clients.Fetcher, r.clients.Relocator, r.logger)
	for entry := range stream.Entries() {
		summary.Entries++
		r.processEntry(ctx, processor, entry, &summary)
		if ctx.Err() != nil {
			break
		}
	}
	if ctx.Err() != nil {
		return r.interrupted(logger, summary, start), nil
	}
	if err := stream.Err(); err != nil {
		err = services.Wrap(services.ErrConfiguration, "queue", "read", r.cfg.Paths.QueueFile, err)
		logger.Error("queue read failed", logging.Error(err))
		return summary, err
	}

	summary.Duration = time.Since(start)
	logger.Info("run complete",
		logging.Int("entries", summary.Entries),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	return summary, nil
}

func (r *Runner) interrupted(logger *slog.Logger, summary Summary, start time.Time) Summary {
	summary.Interrupted = true
	summary.Duration = time.Since(start)
	logger.Info("run interrupted",
		logging.Int("entries", summary.Entries),
		logging.Int("processed", summary.Processed),
		logging.String(logging.FieldEventType, "run_interrupted"),
	)
	return summary
}

func (r *Runner) processEntry(ctx context.Context, processor *archive.Processor, entry queuefile.Entry, summary *Summary) {
	ctx = services.WithEntry(ctx, entry.Line)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.logger, "workflow"))
	logger.Info("processing entry", logging.String("url", entry.URL))

	key, skip := r.resolver.Resolve(services.WithStage(ctx, StageResolve), entry.URL)
	if ctx.Err() != nil {
		return
	}
	if skip {
		summary.Skipped++
		logger.Info("entry skipped; metadata unavailable",
			logging.String("url", entry.URL),
			logging.String(logging.FieldEventType, "entry_skipped"),
		)
		return
	}
	key = r.normalizer.Normalize(key)

	outcome := processor.Process(services.WithStage(ctx, StageArchive), key, entry.URL)
	if ctx.Err() != nil {
		return
	}
	summary.Processed++
	if outcome.Failed() {
		summary.Failed++
	}
	logger.Info("entry processed",
		logging.String("directory", key),
		logging.String("destination", outcome.Destination),
		logging.Bool("swept", outcome.Swept),
		logging.Bool("cleaned", outcome.Cleaned),
		logging.Bool("engine_errors", outcome.Failed()),
		logging.String(logging.FieldEventType, "entry_processed"),
	)
}

// Validator exposes the runner's environment validator for dry checks.
func (r *Runner) Validator() *preflight.Validator {
	return r.validator
}
