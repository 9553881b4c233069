// Package mock provides a mock TTS engine for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/nudge/tts"
)

// Call is one recorded Speak invocation.
type Call struct {
	Text    string
	Options tts.Options
}

// Engine implements tts.Engine by recording what it is asked to say.
type Engine struct {
	name string

	mu        sync.Mutex
	delay     time.Duration
	err       error
	available bool
	voices    []tts.Voice
	calls     []Call
	onSpeak   func(text string)
}

// New creates a mock engine that is available and succeeds instantly.
func New() *Engine {
	return &Engine{
		name:      "mock",
		available: true,
		voices: []tts.Voice{
			{ID: "mock-voice-1", Name: "Mock Voice", Language: "en-US"},
			{ID: "mock-voice-2", Name: "Second Voice", Language: "en-GB"},
		},
	}
}

// Named returns a mock engine reporting name.
func Named(name string) *Engine {
	e := New()
	e.name = name
	return e
}

// Name implements tts.Engine.
func (e *Engine) Name() string {
	return e.name
}

// Available implements tts.Engine.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// Speak records text, waits the configured delay and returns the configured
// error.
func (e *Engine) Speak(ctx context.Context, text string, opts tts.Options) error {
	e.mu.Lock()
	e.calls = append(e.calls, Call{Text: text, Options: opts})
	delay, err, hook := e.delay, e.err, e.onSpeak
	e.mu.Unlock()

	if hook != nil {
		hook(text)
	}
	if text == "" {
		return tts.ErrEmptyText
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// Voices implements tts.Engine.
func (e *Engine) Voices(context.Context) ([]tts.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tts.Voice(nil), e.voices...), nil
}

// SetDelay sets the simulated speaking time.
func (e *Engine) SetDelay(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = d
}

// SetFailure makes every Speak call return err; nil clears it.
func (e *Engine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// SetAvailable controls what Available reports.
func (e *Engine) SetAvailable(ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = ok
}

// SetVoices replaces the voice list.
func (e *Engine) SetVoices(v []tts.Voice) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voices = v
}

// OnSpeak registers a hook run at the start of every Speak call.
func (e *Engine) OnSpeak(fn func(text string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSpeak = fn
}

// Calls returns the recorded calls.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Spoken returns the text of each recorded call.
func (e *Engine) Spoken() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = c.Text
	}
	return out
}

// Reset clears recorded calls.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}
