package proc

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	skipWithoutShell(t)

	res, err := Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", "cat; echo oops >&2"},
		Stdin: strings.NewReader("hello"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(res.Stdout) != "hello" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(string(res.Stderr)) != "oops" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestRunEnv(t *testing.T) {
	skipWithoutShell(t)

	res, err := Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "printf %s \"$MAILREADER_TEST\""},
		Env:  []string{"MAILREADER_TEST=set"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Stdout) != "set" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestRunFailureIncludesStderr(t *testing.T) {
	skipWithoutShell(t)

	_, err := Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q does not include stderr", err)
	}
}

func TestRunTimeout(t *testing.T) {
	skipWithoutShell(t)

	start := time.Now()
	_, err := Run(context.Background(), Command{
		Name:    "sleep",
		Args:    []string{"5"},
		Timeout: 50 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("process was not killed promptly")
	}
}

func TestRunCanceled(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := Run(ctx, Command{Name: "sleep", Args: []string{"5"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunIgnoresLingeringChild(t *testing.T) {
	skipWithoutShell(t)

	start := time.Now()
	res, err := Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo ready; sleep 5 &"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Run waited for a child holding stdout")
	}
	if strings.TrimSpace(string(res.Stdout)) != "ready" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestRunTimeoutWithLingeringChild(t *testing.T) {
	skipWithoutShell(t)

	start := time.Now()
	_, err := Run(context.Background(), Command{
		Name:    "sh",
		Args:    []string{"-c", "sleep 5 & sleep 5"},
		Timeout: 50 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Run waited for a child holding stdout")
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Command{Name: "mailreader-no-such-binary"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestOutputTrims(t *testing.T) {
	skipWithoutShell(t)

	out, err := Output(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo '  v1.2  '"}})
	if err != nil {
		t.Fatal(err)
	}
	if out != "v1.2" {
		t.Errorf("Output = %q", out)
	}
}
