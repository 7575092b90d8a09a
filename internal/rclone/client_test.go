package rclone_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tubesync/internal/config"
	"tubesync/internal/rclone"
	"tubesync/internal/services"
	"tubesync/internal/testsupport"
)

func newClient(t *testing.T, settings rclone.Settings, exec *testsupport.FakeExecutor) *rclone.Client {
	t.Helper()
	if settings.Binary == "" {
		settings.Binary = "rclone"
	}
	client, err := rclone.New(settings, rclone.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestArgsIncludeConfigAndFlags(t *testing.T) {
	client := newClient(t, rclone.Settings{
		Mode:   config.ModeCopy,
		Config: "/etc/rclone.conf",
		Flags:  []string{"--transfers", "2"},
	}, &testsupport.FakeExecutor{})

	got := strings.Join(client.Command("/stage/key", "remote:archive/key"), " ")
	want := "rclone copy /stage/key remote:archive/key --config /etc/rclone.conf --transfers 2"
	if got != want {
		t.Fatalf("unexpected command:\n got %q\nwant %q", got, want)
	}
}

func TestDefaultModeIsMove(t *testing.T) {
	client := newClient(t, rclone.Settings{}, &testsupport.FakeExecutor{})
	if client.Mode() != config.ModeMove {
		t.Fatalf("expected move, got %q", client.Mode())
	}
	args := client.Args("a", "b")
	if len(args) != 3 || args[0] != "move" {
		t.Fatalf("unexpected args %q", args)
	}
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	if _, err := rclone.New(rclone.Settings{}); err == nil {
		t.Fatal("expected error for missing binary")
	}
	if _, err := rclone.New(rclone.Settings{Binary: "rclone", Mode: "sync"}); err == nil {
		t.Fatal("expected error for unsupported mode")
	}
}

func TestRelocateWrapsFailure(t *testing.T) {
	exec := &testsupport.FakeExecutor{Handler: func(string, []string) (string, error) {
		return "", errors.New("exit status 5")
	}}
	client := newClient(t, rclone.Settings{}, exec)

	err := client.Relocate(context.Background(), "/stage/key", "remote:key")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(exec.CallsTo("rclone", "move")) != 1 {
		t.Fatalf("expected one move call, got %v", exec.Calls())
	}
}

func TestProbe(t *testing.T) {
	fail := false
	exec := &testsupport.FakeExecutor{Handler: func(_ string, args []string) (string, error) {
		if fail {
			return "", errors.New("exit status 3")
		}
		return "          -1 2024-01-01 00:00:00        -1 archive", nil
	}}
	client := newClient(t, rclone.Settings{Config: "/c.conf"}, exec)

	if err := client.Probe(context.Background(), "remote:"); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	call := exec.CallsTo("rclone", "lsd")[0]
	if call.Joined() != "lsd remote: --config /c.conf" {
		t.Fatalf("unexpected probe args %q", call.Joined())
	}

	fail = true
	err := client.Probe(context.Background(), "remote:")
	if !errors.Is(err, services.ErrUnreachable) {
		t.Fatalf("expected unreachable error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitFailure {
		t.Fatalf("expected exit 1, got %d", services.ExitCode(err))
	}
}

func TestVersion(t *testing.T) {
	exec := &testsupport.FakeExecutor{Handler: func(string, []string) (string, error) {
		return "rclone v1.65.2\n- os/version: debian 12\n- go/version: go1.21.5\n", nil
	}}
	client := newClient(t, rclone.Settings{}, exec)

	got, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if got != "v1.65.2" {
		t.Fatalf("unexpected version %q", got)
	}
}

func TestVersionUnparseable(t *testing.T) {
	exec := &testsupport.FakeExecutor{Handler: func(string, []string) (string, error) {
		return "something unexpected", nil
	}}
	client := newClient(t, rclone.Settings{}, exec)
	if _, err := client.Version(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
