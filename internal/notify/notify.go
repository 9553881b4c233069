// Package notify shows desktop notifications through the platform's
// notification command.
package notify

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/proc"
)

// Text of the completion notification.
const (
	CompleteTitle = "Timer Complete!"
	CompleteBody  = "Time to take action!"
)

// ErrUnsupported is returned when no notification command is available.
var ErrUnsupported = errors.New("desktop notifications not supported")

// Notifier shows a notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Runner executes a command with stdin and returns its stdout.
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// Desktop notifies with notify-send, osascript or PowerShell.
type Desktop struct {
	goos string
	run  Runner
}

// NewDesktop returns a Desktop notifier for this platform.
func NewDesktop() *Desktop {
	return &Desktop{goos: runtime.GOOS, run: proc.Output}
}

// NewDesktopFor returns a Desktop notifier for goos running commands with run.
func NewDesktopFor(goos string, run Runner) *Desktop {
	return &Desktop{goos: goos, run: run}
}

// Notify implements Notifier.
func (d *Desktop) Notify(ctx context.Context, title, body string) error {
	name, args, ok := Command(d.goos, title, body)
	if !ok {
		return ErrUnsupported
	}
	if _, err := d.run(ctx, nil, name, args...); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Command returns the command that shows a notification on goos.
func Command(goos, title, body string) (string, []string, bool) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleString(body), appleString(title))
		return "osascript", []string{"-e", script}, true
	case "windows":
		script := fmt.Sprintf(
			"[reflection.assembly]::loadwithpartialname('System.Windows.Forms') | Out-Null; "+
				"$n = New-Object System.Windows.Forms.NotifyIcon; "+
				"$n.Icon = [System.Drawing.SystemIcons]::Information; $n.Visible = $true; "+
				"$n.ShowBalloonTip(5000, '%s', '%s', 'Info'); Start-Sleep -Seconds 5; $n.Dispose()",
			psString(title), psString(body))
		return "powershell", []string{"-NoProfile", "-NonInteractive", "-Command", script}, true
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send", []string{"--app-name=nudge", title, body}, true
	}
	return "", nil, false
}

func appleString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func psString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Gated only notifies while enabled reports true.
type Gated struct {
	Notifier Notifier
	Enabled  func() bool
}

// Notify implements Notifier. Suppressed notifications return nil.
func (g Gated) Notify(ctx context.Context, title, body string) error {
	if g.Enabled != nil && !g.Enabled() {
		log.Debug("notification suppressed", "title", title)
		return nil
	}
	return g.Notifier.Notify(ctx, title, body)
}

// Complete sends the completion notification, logging failures.
func Complete(ctx context.Context, n Notifier) {
	if err := n.Notify(ctx, CompleteTitle, CompleteBody); err != nil {
		log.Warn("Could not show notification", "error", err)
	}
}
