package lock

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"tubesync/internal/services"
)

func TestAcquireCreatesMarkerAndParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "tubesync.lock")

	lk, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lk.Release(nil)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected marker to exist: %v", err)
	}
	if lk.Path() != path {
		t.Fatalf("unexpected path %q", lk.Path())
	}
}

func TestAcquireReturnsErrHeldWhenMarkerExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tubesync.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer first.Release(nil)

	if _, err := Acquire(path); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
}

func TestReleaseRemovesMarkerAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tubesync.lock")
	lk, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	lk.Release(logger)
	lk.Release(logger)

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected marker removed, got %v", err)
	}
	if strings.Contains(buf.String(), "already removed") {
		t.Fatalf("second release should be a no-op, got %q", buf.String())
	}

	again, err := Acquire(path)
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	again.Release(nil)
}

func TestReleaseWarnsWhenMarkerVanished(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tubesync.lock")
	lk, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove marker: %v", err)
	}

	var buf bytes.Buffer
	lk.Release(slog.New(slog.NewTextHandler(&buf, nil)))

	if !strings.Contains(buf.String(), "lock marker already removed") {
		t.Fatalf("expected warning about missing marker, got %q", buf.String())
	}
}

func TestInspectStates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tubesync.lock")

	state, err := Inspect(path)
	if err != nil || state != StateAbsent {
		t.Fatalf("expected absent, got %v err=%v", state, err)
	}

	lk, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	state, err = Inspect(path)
	if err != nil || state != StateHeld {
		t.Fatalf("expected held, got %v err=%v", state, err)
	}
	lk.Release(nil)

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write leftover marker: %v", err)
	}
	state, err = Inspect(path)
	if err != nil || state != StateStale {
		t.Fatalf("expected stale, got %v err=%v", state, err)
	}
	if state.String() != "stale" {
		t.Fatalf("unexpected state label %q", state.String())
	}
}

func TestStaleMarkerDefersUnlessReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tubesync.lock")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write leftover marker: %v", err)
	}

	if _, err := Acquire(path); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld for leftover marker, got %v", err)
	}

	lk, err := AcquireWithOptions(path, AcquireOptions{ReclaimStale: true})
	if err != nil {
		t.Fatalf("AcquireWithOptions: %v", err)
	}
	defer lk.Release(nil)

	if _, err := AcquireWithOptions(path, AcquireOptions{ReclaimStale: true}); !errors.Is(err, ErrHeld) {
		t.Fatalf("live marker must not be reclaimed, got %v", err)
	}
}

func TestReclaimWaitsForMarkerBeingAcquired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tubesync.lock")

	// Another process is mid-acquire: guard held, marker created, flock not yet taken.
	guard := flock.New(guardPath(path))
	if err := guard.Lock(); err != nil {
		t.Fatalf("guard lock: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	result := make(chan error, 1)
	go func() {
		lk, err := AcquireWithOptions(path, AcquireOptions{ReclaimStale: true})
		if err == nil {
			lk.Release(nil)
		}
		result <- err
	}()

	select {
	case err := <-result:
		t.Fatalf("reclaim must wait for the guard, returned %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	holder := flock.New(path)
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("holder flock: ok=%v err=%v", ok, err)
	}
	defer holder.Unlock()
	if err := guard.Unlock(); err != nil {
		t.Fatalf("guard unlock: %v", err)
	}

	select {
	case err := <-result:
		if !errors.Is(err, ErrHeld) {
			t.Fatalf("expected ErrHeld for live marker, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reclaim never finished")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("live marker must survive, got %v", err)
	}
}

func TestAcquireReportsConfigurationErrors(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	_, err := Acquire(filepath.Join(blocker, "sub", "tubesync.lock"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitFailure {
		t.Fatalf("expected exit 1, got %d", services.ExitCode(err))
	}
}
