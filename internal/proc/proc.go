// Package proc runs the helper processes used for speech synthesis and
// desktop integration, making sure they die with the context that started
// them.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultGrace is how long a cancelled process gets between the interrupt
// and the kill.
const DefaultGrace = 100 * time.Millisecond

// ErrNotFound is returned when the binary is not on PATH.
var ErrNotFound = errors.New("executable not found")

// Run starts cmd and waits for it. When ctx is done first, the process
// (and on unix its whole process group) is interrupted, then killed after
// grace, and ctx.Err() is returned wrapped.
func Run(ctx context.Context, cmd *exec.Cmd, grace time.Duration) error {
	if grace <= 0 {
		grace = DefaultGrace
	}
	prepare(cmd)

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, cmd.Path)
		}
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Debug("interrupting process", "cmd", cmd.Path, "pid", cmd.Process.Pid)
		_ = interrupt(cmd)
		select {
		case <-done:
		case <-time.After(grace):
			_ = kill(cmd)
			<-done
		}
		return fmt.Errorf("%s cancelled: %w", cmd.Path, ctx.Err())
	}
}

// Output runs name with args and stdin, returning stdout. Stderr is folded
// into the error on failure.
func Output(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := Run(ctx, cmd, DefaultGrace); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" && ctx.Err() == nil {
			return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// First returns the first of names found on PATH.
func First(names ...string) (string, bool) {
	for _, n := range names {
		if p, err := exec.LookPath(n); err == nil {
			return p, true
		}
	}
	return "", false
}
