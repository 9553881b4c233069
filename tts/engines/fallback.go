// Package engines builds the configured speech engine and provides the
// wrappers shared by every engine.
package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/tts"
)

// FallbackEngine wraps a primary engine with automatic fallback to a
// secondary engine when the primary fails consistently.
type FallbackEngine struct {
	primary       tts.Engine
	fallback      tts.Engine
	failures      int
	maxFailures   int
	usingFallback bool
	mu            sync.RWMutex
}

// NewFallbackEngine creates a new engine with automatic fallback capability.
// An unavailable primary switches to the fallback straight away.
func NewFallbackEngine(primary, fallback tts.Engine, maxFailures int) *FallbackEngine {
	f := &FallbackEngine{
		primary:     primary,
		fallback:    fallback,
		maxFailures: max(maxFailures, 1),
	}
	if !primary.Available() && fallback.Available() {
		log.Warn("Primary engine not available, using fallback", "primary", primary.Name(), "fallback", fallback.Name())
		f.usingFallback = true
	}
	return f
}

func (f *FallbackEngine) active() tts.Engine {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.usingFallback {
		return f.fallback
	}
	return f.primary
}

// Name returns the name of the engine currently in use.
func (f *FallbackEngine) Name() string {
	return f.active().Name()
}

// Available checks if either engine is available.
func (f *FallbackEngine) Available() bool {
	return f.primary.Available() || f.fallback.Available()
}

// Speak speaks with the active engine. After maxFailures consecutive
// primary failures the fallback takes over for the rest of the session.
// Cancellation never counts as a failure.
func (f *FallbackEngine) Speak(ctx context.Context, text string, opts tts.Options) error {
	f.mu.RLock()
	using := f.usingFallback
	f.mu.RUnlock()

	if using {
		return f.fallback.Speak(ctx, text, opts)
	}

	err := f.primary.Speak(ctx, text, opts)
	if err == nil {
		f.mu.Lock()
		if f.failures > 0 {
			log.Info("Primary engine recovered", "failures", f.failures)
			f.failures = 0
		}
		f.mu.Unlock()
		return nil
	}
	if tts.IsCanceled(err) || errors.Is(err, tts.ErrEmptyText) {
		return err
	}

	f.mu.Lock()
	f.failures++
	failures := f.failures
	log.Warn("Primary engine failed", "attempt", failures, "max", f.maxFailures, "error", err)
	switchNow := failures >= f.maxFailures || !tts.IsRecoverableError(err)
	if switchNow {
		log.Warn("Switching to fallback engine", "primary", f.primary.Name(), "fallback", f.fallback.Name())
		f.usingFallback = true
	}
	f.mu.Unlock()

	if !switchNow {
		return err
	}
	if ferr := f.fallback.Speak(ctx, text, opts); ferr != nil {
		return fmt.Errorf("both engines failed: %w", ferr)
	}
	return nil
}

// Voices returns voices from the active engine.
func (f *FallbackEngine) Voices(ctx context.Context) ([]tts.Voice, error) {
	return f.active().Voices(ctx)
}

// Reset attempts to reset to primary engine.
func (f *FallbackEngine) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = 0
	f.usingFallback = false
	log.Info("Reset to primary engine")
}

// Status returns the current engine status.
func (f *FallbackEngine) Status() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.usingFallback {
		return fmt.Sprintf("Using fallback engine (primary failed %d times)", f.failures)
	}
	return fmt.Sprintf("Using primary engine (failures: %d/%d)", f.failures, f.maxFailures)
}
