package testsupport

import (
	"context"
	"strings"
	"sync"

	"tubesync/internal/command"
)

// Call records one invocation seen by FakeExecutor.
type Call struct {
	Binary string
	Args   []string
}

// Joined renders the argument vector space separated for substring assertions.
func (c Call) Joined() string {
	return strings.Join(c.Args, " ")
}

// FakeExecutor records invocations and answers them from Handler. With no
// handler every call succeeds with empty output.
type FakeExecutor struct {
	Handler func(binary string, args []string) (string, error)

	mu    sync.Mutex
	calls []Call
}

var _ command.Executor = (*FakeExecutor)(nil)

func (f *FakeExecutor) respond(ctx context.Context, binary string, args []string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Binary: binary, Args: append([]string(nil), args...)})
	handler := f.Handler
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if handler == nil {
		return "", nil
	}
	return handler(binary, args)
}

func (f *FakeExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	out, err := f.respond(ctx, binary, args)
	if onLine != nil && out != "" {
		for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
			onLine(line)
		}
	}
	return err
}

func (f *FakeExecutor) Output(ctx context.Context, binary string, args []string) (string, error) {
	out, err := f.respond(ctx, binary, args)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Calls returns a snapshot of every recorded invocation.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns recorded invocations of binary whose first argument is
// verb, or all invocations of binary when verb is empty.
func (f *FakeExecutor) CallsTo(binary, verb string) []Call {
	var matched []Call
	for _, call := range f.Calls() {
		if call.Binary != binary {
			continue
		}
		if verb != "" && (len(call.Args) == 0 || call.Args[0] != verb) {
			continue
		}
		matched = append(matched, call)
	}
	return matched
}

// HasFlag reports whether args contains flag.
func HasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

// FlagValue returns the argument following flag, if present.
func FlagValue(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}
