package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"tubesync/internal/logging"
	"tubesync/internal/services"
)

// ErrHeld reports that another instance owns the lock marker.
var ErrHeld = errors.New("another instance is running")

// State describes a lock marker as seen from outside the holder.
type State int

const (
	StateAbsent State = iota
	StateHeld
	StateStale
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateHeld:
		return "held"
	case StateStale:
		return "stale"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AcquireOptions tunes marker acquisition.
type AcquireOptions struct {
	// ReclaimStale removes a marker nobody holds a flock on before acquiring.
	ReclaimStale bool
}

// Lock is an acquired marker. Release must be called on every exit path.
type Lock struct {
	path  string
	flock *flock.Flock

	mu       sync.Mutex
	released bool
}

// Acquire creates the marker at path using the default options.
func Acquire(path string) (*Lock, error) {
	return AcquireWithOptions(path, AcquireOptions{})
}

// guardPath is the sibling file whose flock serializes every marker
// transition. It is never removed.
func guardPath(path string) string {
	return path + ".guard"
}

// AcquireWithOptions creates the marker at path. It returns ErrHeld when the
// marker already exists, including when another process wins the create race.
//
// Inspecting, reclaiming, creating and flocking the marker all happen under
// the guard flock, so no other process can observe a marker that exists but
// is not yet flocked.
func AcquireWithOptions(path string, opts AcquireOptions) (*Lock, error) {
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "acquire", "lock path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "acquire", "create lock directory", err)
	}

	guard := flock.New(guardPath(path))
	if err := guard.Lock(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "acquire", "lock guard", err)
	}
	defer func() { _ = guard.Unlock() }()

	if opts.ReclaimStale {
		state, err := inspect(path)
		if err != nil {
			return nil, err
		}
		if state == StateStale {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, services.Wrap(services.ErrConfiguration, "lock", "acquire", "remove stale marker", err)
			}
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrHeld
		}
		return nil, services.Wrap(services.ErrConfiguration, "lock", "acquire", "create lock marker", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return nil, services.Wrap(services.ErrConfiguration, "lock", "acquire", "close lock marker", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		_ = os.Remove(path)
		return nil, services.Wrap(services.ErrConfiguration, "lock", "acquire", "flock marker", err)
	}
	if !ok {
		// A live holder lost its marker; ours now stands in for it.
		return nil, ErrHeld
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path returns the marker location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the flock and removes the marker. A marker that vanished
// while held is logged and otherwise ignored. Calling Release more than once
// is a no-op.
func (l *Lock) Release(logger *slog.Logger) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	if logger == nil {
		logger = logging.NewNop()
	}

	guard := flock.New(guardPath(l.path))
	if err := guard.Lock(); err != nil {
		logger.Warn("failed to take lock guard",
			logging.String("lock", l.path),
			logging.Error(err),
		)
	} else {
		defer func() { _ = guard.Unlock() }()
	}

	// The marker goes first so a reclaiming process never sees it unflocked.
	removed := true
	if err := os.Remove(l.path); err != nil {
		removed = false
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("lock marker already removed", logging.String("lock", l.path))
		} else {
			logger.Warn("failed to remove lock marker",
				logging.String("lock", l.path),
				logging.Error(err),
			)
		}
	}
	if err := l.flock.Unlock(); err != nil {
		logger.Warn("failed to release lock flock",
			logging.String("lock", l.path),
			logging.Error(err),
		)
	}
	if removed {
		logger.Debug("lock released", logging.String("lock", l.path))
	}
}

// Inspect reports whether the marker at path is absent, held by a live
// process, or stale. It waits for any acquisition or release in progress.
func Inspect(path string) (State, error) {
	if _, err := os.Stat(filepath.Dir(path)); errors.Is(err, fs.ErrNotExist) {
		return StateAbsent, nil
	}
	guard := flock.New(guardPath(path))
	if err := guard.RLock(); err != nil {
		return StateAbsent, fmt.Errorf("lock guard: %w", err)
	}
	defer func() { _ = guard.Unlock() }()
	return inspect(path)
}

func inspect(path string) (State, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StateAbsent, nil
		}
		return StateAbsent, fmt.Errorf("stat lock marker: %w", err)
	}
	if info.IsDir() {
		return StateAbsent, services.Wrap(services.ErrConfiguration, "lock", "inspect", path+" is a directory", nil)
	}

	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil {
		return StateAbsent, fmt.Errorf("probe lock marker: %w", err)
	}
	if !ok {
		return StateHeld, nil
	}
	_ = probe.Unlock()
	return StateStale, nil
}
