package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const xattrProbeName = "user.tubesync.probe"

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// EnsureDirectory creates path and its parents when missing.
func EnsureDirectory(path string) error {
	if path == "" {
		return errors.New("path not configured")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureFile creates an empty file at path when missing and returns its size.
// Existing content is never modified.
func EnsureFile(path string) (int64, error) {
	if path == "" {
		return 0, errors.New("path not configured")
	}
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return 0, errors.New("is a directory")
		}
		return info.Size(), nil
	case !errors.Is(err, fs.ErrNotExist):
		return 0, fmt.Errorf("stat: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create parent: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("close: %w", err)
	}
	return 0, nil
}

// ProbeXAttrs writes a user extended attribute to a throwaway file inside dir.
func ProbeXAttrs(dir string) error {
	file, err := os.CreateTemp(dir, ".xattr-probe-*")
	if err != nil {
		return fmt.Errorf("create probe file: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)
	if err := file.Close(); err != nil {
		return fmt.Errorf("close probe file: %w", err)
	}
	if err := unix.Setxattr(path, xattrProbeName, []byte("1"), 0); err != nil {
		return fmt.Errorf("setxattr: %w", err)
	}
	return nil
}
