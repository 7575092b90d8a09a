package metadata

import (
	"context"
	"log/slog"

	"tubesync/internal/config"
	"tubesync/internal/logging"
)

// FieldResolver extracts one metadata field for a playlist index.
type FieldResolver interface {
	ResolveField(ctx context.Context, field string, index int, url string) (string, error)
}

// Resolver derives a directory key for a source URL.
type Resolver struct {
	fetcher    FieldResolver
	field      string
	fallback   string
	skipOnFail bool
	logger     *slog.Logger
}

// NewResolver builds a resolver from fetch settings.
func NewResolver(fetcher FieldResolver, fetch config.Fetch, logger *slog.Logger) *Resolver {
	return &Resolver{
		fetcher:    fetcher,
		field:      fetch.DirectoryField,
		fallback:   fetch.DirectoryDefault,
		skipOnFail: fetch.SkipOnFail,
		logger:     logging.NewComponentLogger(logger, "resolver"),
	}
}

// Default returns the key used when metadata cannot be extracted.
func (r *Resolver) Default() string {
	return r.fallback
}

// Attempt extracts the configured field for the item at index. Engine
// failures and empty output both yield the default key.
func (r *Resolver) Attempt(ctx context.Context, index int, url string) string {
	value, err := r.fetcher.ResolveField(ctx, r.field, index, url)
	if err != nil {
		logging.WithContext(ctx, r.logger).Debug("metadata extraction failed",
			logging.String("field", r.field),
			logging.Int("index", index),
			logging.String("url", url),
			logging.Error(err),
		)
		return r.fallback
	}
	if value == "" {
		return r.fallback
	}
	return value
}

// Resolve tries the first playlist item, then the second. When both yield the
// default the entry is skipped if skip_on_fail is set; otherwise the default
// key is returned.
func (r *Resolver) Resolve(ctx context.Context, url string) (key string, skip bool) {
	logger := logging.WithContext(ctx, r.logger)
	key = r.Attempt(ctx, 1, url)
	if key != r.fallback {
		return key, false
	}
	logger.Debug("retrying metadata extraction with second item", logging.String("url", url))
	key = r.Attempt(ctx, 2, url)
	if key != r.fallback {
		return key, false
	}
	if r.skipOnFail {
		logger.Debug("metadata unavailable, skipping entry", logging.String("url", url))
		return "", true
	}
	logger.Debug("metadata unavailable, using default directory",
		logging.String("url", url),
		logging.String("directory", r.fallback),
	)
	return r.fallback, false
}
