package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/app"
	"github.com/dgnsrekt/nudge/internal/speech"
	"github.com/dgnsrekt/nudge/internal/timer"
	"github.com/dgnsrekt/nudge/ui"
	"github.com/spf13/cobra"
)

var (
	headless bool
	once     bool

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start the timer",
		Long: paragraph(fmt.Sprintf("\nStart the timer. With %s the countdown is printed to stdout instead of the full screen interface, which is also what happens when stdout is not a terminal.",
			keyword("--headless"))),
		Example: paragraph("nudge run\nnudge run --headless --duration 45s --once"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if headless || !isTerminal() {
				return runHeadless(cmd.Context(), cmd.OutOrStdout(), once)
			}
			return runTUI()
		},
	}
)

func init() {
	runCmd.Flags().BoolVar(&headless, "headless", false, "print the countdown instead of running the interface")
	runCmd.Flags().BoolVar(&once, "once", false, "exit after the first completion (headless only)")
}

// lockedWriter serializes writes from the ticker goroutine and the run loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p) //nolint:wrapcheck
}

func runHeadless(ctx context.Context, w io.Writer, once bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return countdown(ctx, a, w, once, cfg.AutoRestartDelay)
}

// countdown prints the remaining time on one line and speaks the message
// sequence at every completion. With auto-restart on, the next run starts
// restartDelay after completion whether or not the speech has finished. It
// returns when ctx is done, or after the first completion's speech when once
// is set or auto-restart is off.
func countdown(ctx context.Context, a *app.App, w io.Writer, once bool, restartDelay time.Duration) error {
	out := &lockedWriter{w: w}
	completed := make(chan struct{}, 1)

	a.Timer.OnRender(func(formatted string, st timer.TimerState) {
		fmt.Fprintf(out, "\r%s %s ", formatted, subtle(fmt.Sprintf("%3.0f%%", st.Progress()*100)))
	})
	a.Timer.OnComplete(func() {
		select {
		case completed <- struct{}{}:
		default:
		}
	})
	defer func() {
		a.Timer.OnRender(nil)
		a.Timer.OnComplete(nil)
	}()

	var speaking sync.WaitGroup
	defer speaking.Wait()

	var restart <-chan time.Time
	a.Timer.Start()
	for {
		select {
		case <-ctx.Done():
			a.Timer.Stop()
			fmt.Fprintln(out)
			return nil

		case <-completed:
			fmt.Fprintln(out)
			speaking.Add(1)
			go func(results <-chan speech.Result) {
				defer speaking.Done()
				printResult(out, <-results)
			}(a.Complete(ctx))

			if once || !a.TimerSettings().AutoRestart {
				return nil
			}
			restart = time.After(restartDelay)

		case <-restart:
			restart = nil
			a.Timer.Reset()
			a.Timer.Start()
		}
	}
}

func printResult(w io.Writer, res speech.Result) {
	if res.Dropped {
		log.Debug("Previous sequence still speaking, skipping this one")
		return
	}
	for _, u := range res.Spoken {
		fmt.Fprintf(w, "%s %s\n", keyword(u.Category.Short()), u.Message)
	}
	if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
		log.Warn("Speech sequence failed", "error", res.Err)
	}
}
