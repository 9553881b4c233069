// Package window keeps the terminal window above others when the
// always-on-top setting is on.
package window

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/proc"
)

// ErrUnsupported is returned where the window cannot be pinned.
var ErrUnsupported = errors.New("always on top not supported")

// Pinner changes whether the window stays on top.
type Pinner interface {
	SetAlwaysOnTop(ctx context.Context, on bool) error
}

// Runner executes a command with stdin and returns its stdout.
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// WM pins the active window with wmctrl, the only portable way to reach the
// terminal emulator's window from inside it.
type WM struct {
	goos string
	run  Runner
}

// New returns a WM for this platform.
func New() *WM {
	return &WM{goos: runtime.GOOS, run: proc.Output}
}

// NewFor returns a WM for goos running commands with run.
func NewFor(goos string, run Runner) *WM {
	return &WM{goos: goos, run: run}
}

// Args returns the wmctrl arguments for on.
func Args(on bool) []string {
	op := "remove"
	if on {
		op = "add"
	}
	return []string{"-r", ":ACTIVE:", "-b", op + ",above"}
}

// SetAlwaysOnTop implements Pinner.
func (w *WM) SetAlwaysOnTop(ctx context.Context, on bool) error {
	if w.goos != "linux" && w.goos != "freebsd" {
		return ErrUnsupported
	}
	if _, err := w.run(ctx, nil, "wmctrl", Args(on)...); err != nil {
		if errors.Is(err, proc.ErrNotFound) {
			return fmt.Errorf("%w: wmctrl not installed", ErrUnsupported)
		}
		return fmt.Errorf("wmctrl: %w", err)
	}
	log.Debug("window pinned", "on", on)
	return nil
}
