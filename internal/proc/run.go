// Package proc runs external programs with a timeout and captured output.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrTimeout indicates the process exceeded its timeout.
var ErrTimeout = errors.New("process timed out")

// waitDelay bounds how long an interrupted process has to exit, and how
// long Run waits for output pipes held open by its children.
const waitDelay = 100 * time.Millisecond

// Command describes one external process invocation.
type Command struct {
	Name    string
	Args    []string
	Stdin   io.Reader
	Dir     string
	Env     []string // appended to the current environment
	Timeout time.Duration
}

// Result holds the captured output of a finished Command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Run executes c and waits for it. Stdin is configured before the process
// starts. When the timeout or ctx expires the process is interrupted, then
// killed if it has not exited within waitDelay. Output still held open by
// a child process waitDelay after the process exits is dropped.
func Run(ctx context.Context, c Command) (Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = waitDelay
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	} else {
		cmd.Stdin = strings.NewReader("")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start %s: %w", c.Name, err)
	}

	err := cmd.Wait()
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case errors.Is(err, exec.ErrWaitDelay):
		log.Debug("Output left open by a child process", "name", c.Name)
		err = nil
	}

	res := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	log.Debug("Ran command", "name", c.Name, "args", len(c.Args), "duration", res.Duration, "error", err)

	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, context.DeadlineExceeded):
		return res, fmt.Errorf("%s: %w after %s", c.Name, ErrTimeout, c.Timeout)
	case errors.Is(err, context.Canceled):
		return res, fmt.Errorf("%s: %w", c.Name, err)
	default:
		return res, fmt.Errorf("%s failed: %w, stderr: %s", c.Name, err, strings.TrimSpace(stderr.String()))
	}
}

// Output runs c and returns its trimmed stdout.
func Output(ctx context.Context, c Command) (string, error) {
	res, err := Run(ctx, c)
	return strings.TrimSpace(string(res.Stdout)), err
}
