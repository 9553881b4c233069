// Package speech plays the completion sequence: one random message from each
// of the first N categories, spoken in order with a pause between them.
package speech

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/dgnsrekt/nudge/internal/settings"
	"github.com/dgnsrekt/nudge/tts"
)

// DefaultDelay is the pause between two messages of a sequence.
const DefaultDelay = 1000 * time.Millisecond

// ErrBusy is returned by SpeakText while something else is being spoken.
var ErrBusy = errors.New("already speaking")

// Source supplies the messages of a category.
type Source interface {
	Messages(cat messages.Category) []string
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Utterance is one spoken message.
type Utterance struct {
	Category messages.Category
	Message  string
}

// Result is the outcome of one sequence.
type Result struct {
	Spoken []Utterance
	// Err is the context error when the sequence was cancelled.
	Err error
	// Dropped is set when another sequence was already running.
	Dropped bool
}

// Messages returns the spoken message texts in order.
func (r Result) Messages() []string {
	out := make([]string, len(r.Spoken))
	for i, u := range r.Spoken {
		out[i] = u.Message
	}
	return out
}

// Sequencer speaks messages through an engine using the current settings.
type Sequencer struct {
	engine   tts.Engine
	source   Source
	settings func() settings.Settings

	delay time.Duration
	sleep Sleeper
	intN  func(int) int

	state   *StateMachine
	running atomic.Bool

	voicesMu sync.Mutex
	voices   []tts.Voice
	voicesOK bool

	onSpoken func(Utterance)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithDelay sets the pause between messages.
func WithDelay(d time.Duration) Option {
	return func(s *Sequencer) { s.delay = max(d, 0) }
}

// WithSleeper replaces the delay implementation.
func WithSleeper(fn Sleeper) Option {
	return func(s *Sequencer) { s.sleep = fn }
}

// WithRand replaces the message picker's random source.
func WithRand(intN func(int) int) Option {
	return func(s *Sequencer) { s.intN = intN }
}

// New returns a Sequencer speaking messages from source with engine.
func New(engine tts.Engine, source Source, get func() settings.Settings, opts ...Option) *Sequencer {
	s := &Sequencer{
		engine:   engine,
		source:   source,
		settings: get,
		delay:    DefaultDelay,
		sleep:    Sleep,
		intN:     rand.IntN,
		state:    NewStateMachine(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the sequencer's state machine.
func (s *Sequencer) State() *StateMachine {
	return s.state
}

// Running reports whether a sequence started by Go, or a SpeakText call, is
// in flight.
func (s *Sequencer) Running() bool {
	return s.running.Load()
}

// OnSpoken registers fn to run after each message has been spoken. Set it
// before the first sequence starts.
func (s *Sequencer) OnSpoken(fn func(Utterance)) {
	s.onSpoken = fn
}

// Go plays the sequence on its own goroutine. The returned channel receives
// exactly one Result and is then closed. When a sequence is already running
// the request is dropped and the Result says so.
func (s *Sequencer) Go(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	if !s.running.CompareAndSwap(false, true) {
		log.Debug("speech sequence already running, dropping request")
		ch <- Result{Dropped: true}
		close(ch)
		return ch
	}
	go func() {
		defer close(ch)
		defer s.running.Store(false)
		spoken, err := s.PlaySequence(ctx)
		ch <- Result{Spoken: spoken, Err: err}
	}()
	return ch
}

// PlaySequence speaks one message from each of categories 1..N in order,
// where N is the configured audio count, pausing between messages. It does
// nothing when sound is disabled. Engine failures are logged and the
// sequence moves on; only cancellation is reported as an error. The returned
// utterances are the ones that actually played.
func (s *Sequencer) PlaySequence(ctx context.Context) ([]Utterance, error) {
	st := s.settings()
	if !st.Sound {
		log.Debug("sound disabled, skipping speech sequence")
		return nil, nil
	}
	n := st.ClampedAudioCount()
	log.Debug("playing speech sequence", "count", n)

	defer s.state.Transition(StateIdle)

	var spoken []Utterance
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return spoken, err
		}
		cat := messages.Category(i)
		msg, err := s.Speak(ctx, cat)
		if err != nil {
			if ctx.Err() != nil {
				return spoken, ctx.Err()
			}
			log.Warn("speech failed", "category", cat.Short(), "error", err)
		} else if msg != "" {
			spoken = append(spoken, Utterance{Category: cat, Message: msg})
		}
		if i < n {
			s.state.Transition(StateWaiting)
			if err := s.sleep(ctx, s.delay); err != nil {
				return spoken, err
			}
		}
	}
	return spoken, nil
}

// Speak says one random message of cat and returns it once it has played.
// An empty category returns "" without touching the engine. When the engine
// fails the message is not returned.
func (s *Sequencer) Speak(ctx context.Context, cat messages.Category) (string, error) {
	msgs := s.source.Messages(cat)
	if len(msgs) == 0 {
		log.Debug("no messages in category", "category", cat.Short())
		return "", nil
	}
	msg := msgs[s.intN(len(msgs))]
	if err := s.say(ctx, cat, msg); err != nil {
		return "", err
	}
	return msg, nil
}

// SpeakText says msg with the current voice settings, as Speak does for a
// picked message. It returns ErrBusy without speaking while a sequence or
// another SpeakText call is in flight.
func (s *Sequencer) SpeakText(ctx context.Context, msg string) error {
	if !s.running.CompareAndSwap(false, true) {
		log.Debug("speech already running, dropping text request")
		return ErrBusy
	}
	defer s.running.Store(false)
	defer s.state.Transition(StateIdle)
	return s.say(ctx, 0, msg)
}

func (s *Sequencer) say(ctx context.Context, cat messages.Category, msg string) error {
	st := s.settings()
	opts := tts.Options{
		Voice:  s.voiceID(ctx, st.SpeechVoice),
		Rate:   st.SpeechRate,
		Pitch:  st.SpeechPitch,
		Volume: st.Volume,
	}

	s.state.Transition(StateSpeaking)
	if err := s.engine.Speak(ctx, messages.PlainText(msg), opts); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", s.engine.Name(), err)
	}
	if s.onSpoken != nil {
		s.onSpoken(Utterance{Category: cat, Message: msg})
	}
	return nil
}

// Voices returns the engine's voice list, fetched once and then cached.
func (s *Sequencer) Voices(ctx context.Context) []tts.Voice {
	s.voicesMu.Lock()
	defer s.voicesMu.Unlock()
	if !s.voicesOK {
		v, err := s.engine.Voices(ctx)
		if err != nil {
			log.Debug("could not list voices", "engine", s.engine.Name(), "error", err)
			return nil
		}
		s.voices, s.voicesOK = v, true
	}
	return s.voices
}

// RefreshVoices drops the cached voice list.
func (s *Sequencer) RefreshVoices() {
	s.voicesMu.Lock()
	defer s.voicesMu.Unlock()
	s.voices, s.voicesOK = nil, false
}

func (s *Sequencer) voiceID(ctx context.Context, index int) string {
	return tts.VoiceAt(s.Voices(ctx), index)
}
