// Package command runs external tools on behalf of the fetch and relocation
// clients. The Executor interface keeps subprocess plumbing out of the
// clients so tests can script tool behaviour without real binaries.
package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes binary with args, forwarding each stdout and stderr line to
	// onLine when it is non-nil.
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
	// Output executes binary with args and returns its trimmed stdout.
	Output(ctx context.Context, binary string, args []string) (string, error)
}

// ExitError describes a command that ran but exited non-zero.
type ExitError struct {
	Binary string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Binary, e.Code)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + lastLine(stderr)
	}
	return msg
}

// ExitCodeOf returns the exit status carried by err, or -1 when err does not
// describe a completed process.
func ExitCodeOf(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// New returns the default os/exec backed executor.
func New() Executor {
	return execExecutor{}
}

type execExecutor struct{}

// waitDelay bounds how long Wait keeps reading output after the process
// group was killed. Grandchildren that escaped the group can otherwise hold
// the pipes open indefinitely.
const waitDelay = 5 * time.Second

// newCommand starts binary in its own process group so cancellation reaches
// the hooks it spawns (yt-dlp --exec runs rclone through sh).
func newCommand(ctx context.Context, binary string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = waitDelay
	return cmd
}

func (execExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := newCommand(ctx, binary, args)
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scanErr error
		once    sync.Once
		tail    bytes.Buffer
	)

	forward := func(line string, isStderr bool) {
		mu.Lock()
		defer mu.Unlock()
		if isStderr {
			tail.Reset()
			tail.WriteString(line)
		}
		if onLine != nil {
			onLine(line)
		}
	}

	scan := func(r io.Reader, isStderr bool) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text(), isStderr)
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
			// Keep draining so the child never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)
	go scan(stdoutR, false)
	go scan(stderrR, true)

	var waitErr error
	if err := cmd.Start(); err != nil {
		waitErr = fmt.Errorf("start %s: %w", binary, err)
	} else {
		waitErr = cmd.Wait()
	}
	// Wait has returned, so nothing writes to the pipes any more.
	_ = stdoutW.Close()
	_ = stderrW.Close()
	wg.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if waitErr != nil {
		if cmd.Process == nil {
			return waitErr
		}
		return wrapWaitError(binary, waitErr, tail.String())
	}
	if scanErr != nil {
		return fmt.Errorf("scan output: %w", scanErr)
	}
	return nil
}

func (execExecutor) Output(ctx context.Context, binary string, args []string) (string, error) {
	cmd := newCommand(ctx, binary, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", wrapWaitError(binary, err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

func wrapWaitError(binary string, err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Binary: binary, Code: exitErr.ExitCode(), Stderr: stderr}
	}
	return fmt.Errorf("run %s: %w", binary, err)
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
