package speech

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/dgnsrekt/nudge/internal/settings"
	"github.com/dgnsrekt/nudge/tts/engines/mock"
)

type fakeSource map[messages.Category][]string

func (f fakeSource) Messages(cat messages.Category) []string { return f[cat] }

var fullSource = fakeSource{
	messages.CheckIn:       {"What are you doing?"},
	messages.Motivation:    {"Get back to work!"},
	messages.Punishment:    {"Seriously?"},
	messages.Encouragement: {"You've got this!"},
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func settingsWith(fn func(*settings.Settings)) func() settings.Settings {
	return func() settings.Settings {
		s := settings.Defaults()
		fn(&s)
		return s
	}
}

func TestPlaySequence(t *testing.T) {
	tests := []struct {
		count      int
		want       []string
		wantDelays int
	}{
		{1, []string{"What are you doing?"}, 0},
		{3, []string{"What are you doing?", "Get back to work!", "Seriously?"}, 2},
		{4, []string{"What are you doing?", "Get back to work!", "Seriously?", "You've got this!"}, 3},
		{9, []string{"What are you doing?", "Get back to work!", "Seriously?", "You've got this!"}, 3},
		{0, []string{"What are you doing?"}, 0},
	}
	for _, tt := range tests {
		engine := mock.New()
		sl := &recordingSleeper{}
		seq := New(engine, fullSource, settingsWith(func(s *settings.Settings) { s.AudioCount = tt.count }),
			WithSleeper(sl.sleep))

		spoken, err := seq.PlaySequence(context.Background())
		if err != nil {
			t.Fatalf("count %d: PlaySequence() error = %v", tt.count, err)
		}
		if got := engine.Spoken(); !slices.Equal(got, tt.want) {
			t.Errorf("count %d: engine spoke %v, want %v", tt.count, got, tt.want)
		}
		if len(spoken) != len(tt.want) {
			t.Errorf("count %d: len(spoken) = %d, want %d", tt.count, len(spoken), len(tt.want))
		}
		if len(sl.delays) != tt.wantDelays {
			t.Errorf("count %d: %d delays, want %d", tt.count, len(sl.delays), tt.wantDelays)
		}
		for _, d := range sl.delays {
			if d != DefaultDelay {
				t.Errorf("delay = %v, want %v", d, DefaultDelay)
			}
		}
		if got := seq.State().Current(); got != StateIdle {
			t.Errorf("state after sequence = %v, want idle", got)
		}
	}
}

func TestPlaySequenceSoundDisabled(t *testing.T) {
	engine := mock.New()
	seq := New(engine, fullSource, settingsWith(func(s *settings.Settings) { s.Sound = false }))
	spoken, err := seq.PlaySequence(context.Background())
	if err != nil || len(spoken) != 0 {
		t.Errorf("PlaySequence() = %v, %v; want nothing", spoken, err)
	}
	if got := len(engine.Calls()); got != 0 {
		t.Errorf("engine called %d times, want 0", got)
	}
}

func TestPlaySequenceEmptyCategory(t *testing.T) {
	engine := mock.New()
	src := fakeSource{
		messages.CheckIn:    {"one"},
		messages.Punishment: {"three"},
	}
	sl := &recordingSleeper{}
	seq := New(engine, src, settingsWith(func(s *settings.Settings) { s.AudioCount = 3 }), WithSleeper(sl.sleep))

	spoken, err := seq.PlaySequence(context.Background())
	if err != nil {
		t.Fatalf("PlaySequence() error = %v", err)
	}
	if got := engine.Spoken(); !slices.Equal(got, []string{"one", "three"}) {
		t.Errorf("engine spoke %v, want [one three]", got)
	}
	if spoken[1].Category != messages.Punishment {
		t.Errorf("second utterance category = %v, want 3", spoken[1].Category)
	}
	if len(sl.delays) != 2 {
		t.Errorf("%d delays, want 2", len(sl.delays))
	}
}

func TestPlaySequenceSwallowsEngineErrors(t *testing.T) {
	engine := mock.New()
	engine.SetFailure(errors.New("no audio device"))
	seq := New(engine, fullSource, settingsWith(func(s *settings.Settings) { s.AudioCount = 2 }),
		WithSleeper(func(context.Context, time.Duration) error { return nil }))

	spoken, err := seq.PlaySequence(context.Background())
	if err != nil {
		t.Fatalf("PlaySequence() error = %v, want nil", err)
	}
	if len(engine.Calls()) != 2 {
		t.Errorf("calls = %d, want both categories attempted", len(engine.Calls()))
	}
	if len(spoken) != 0 {
		t.Errorf("spoken = %v, want nothing reported as played", spoken)
	}
}

func TestPlaySequenceReportsOnlyPlayedMessages(t *testing.T) {
	engine := mock.New()
	busy := errors.New("device busy")
	// the failure set here applies to the following call
	engine.SetFailure(busy)
	engine.OnSpeak(func(text string) {
		if text == "What are you doing?" {
			engine.SetFailure(nil)
			return
		}
		engine.SetFailure(busy)
	})
	var heard []Utterance
	seq := New(engine, fullSource, settingsWith(func(s *settings.Settings) { s.AudioCount = 3 }), WithDelay(0))
	seq.OnSpoken(func(u Utterance) { heard = append(heard, u) })

	spoken, err := seq.PlaySequence(context.Background())
	if err != nil {
		t.Fatalf("PlaySequence() error = %v", err)
	}
	want := []Utterance{{Category: messages.Motivation, Message: "Get back to work!"}}
	if !slices.Equal(spoken, want) {
		t.Errorf("spoken = %v, want %v", spoken, want)
	}
	if !slices.Equal(heard, want) {
		t.Errorf("OnSpoken saw %v, want %v", heard, want)
	}
}

func TestPlaySequenceCancel(t *testing.T) {
	engine := mock.New()
	ctx, cancel := context.WithCancel(context.Background())
	engine.OnSpeak(func(text string) {
		if text == "Get back to work!" {
			cancel()
		}
	})
	seq := New(engine, fullSource, settingsWith(func(s *settings.Settings) { s.AudioCount = 4 }),
		WithDelay(0))

	spoken, err := seq.PlaySequence(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("PlaySequence() error = %v, want context.Canceled", err)
	}
	if got := engine.Spoken(); !slices.Equal(got, []string{"What are you doing?", "Get back to work!"}) {
		t.Errorf("engine spoke %v; later categories must be skipped", got)
	}
	if len(spoken) != 2 {
		t.Errorf("len(spoken) = %d, want 2", len(spoken))
	}
}

func TestSpeakPicksRandomMessage(t *testing.T) {
	engine := mock.New()
	src := fakeSource{messages.Motivation: {"a", "b", "c"}}
	var gotN int
	seq := New(engine, src, settings.Defaults, WithRand(func(n int) int { gotN = n; return 2 }))

	msg, err := seq.Speak(context.Background(), messages.Motivation)
	if err != nil || msg != "c" {
		t.Errorf("Speak() = %q, %v; want c", msg, err)
	}
	if gotN != 3 {
		t.Errorf("rand called with %d, want 3", gotN)
	}
}

func TestSpeakUsesSettings(t *testing.T) {
	engine := mock.New()
	src := fakeSource{messages.CheckIn: {"**Focus** now"}}
	seq := New(engine, src, settingsWith(func(s *settings.Settings) {
		s.SpeechVoice = 1
		s.SpeechRate = 1.5
		s.SpeechPitch = 0.5
		s.Volume = 0.3
	}))

	if _, err := seq.Speak(context.Background(), messages.CheckIn); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	c := engine.Calls()[0]
	if c.Text != "Focus now" {
		t.Errorf("text = %q, want markdown stripped", c.Text)
	}
	if c.Options.Voice != "mock-voice-2" || c.Options.Rate != 1.5 || c.Options.Pitch != 0.5 || c.Options.Volume != 0.3 {
		t.Errorf("options = %+v", c.Options)
	}
}

func TestSpeakEmptyCategory(t *testing.T) {
	engine := mock.New()
	seq := New(engine, fakeSource{}, settings.Defaults)
	msg, err := seq.Speak(context.Background(), messages.Encouragement)
	if msg != "" || err != nil {
		t.Errorf("Speak() = %q, %v; want empty", msg, err)
	}
	if len(engine.Calls()) != 0 {
		t.Error("engine called for empty category")
	}
}

func TestSpeakEngineFailure(t *testing.T) {
	engine := mock.New()
	engine.SetFailure(errors.New("no audio device"))
	seq := New(engine, fullSource, settings.Defaults)

	msg, err := seq.Speak(context.Background(), messages.CheckIn)
	if err == nil {
		t.Fatal("Speak() error = nil, want engine error")
	}
	if msg != "" {
		t.Errorf("Speak() = %q, want no message when nothing played", msg)
	}
}

func TestSpeakTextWhileSequenceRunning(t *testing.T) {
	engine := mock.New()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	engine.OnSpeak(func(text string) {
		if text != "What are you doing?" {
			return
		}
		started <- struct{}{}
		<-release
	})
	seq := New(engine, fullSource, settingsWith(func(s *settings.Settings) { s.AudioCount = 1 }))

	done := seq.Go(context.Background())
	<-started
	if err := seq.SpeakText(context.Background(), "Testing voice"); !errors.Is(err, ErrBusy) {
		t.Errorf("SpeakText() during sequence error = %v, want ErrBusy", err)
	}
	close(release)
	for range done {
	}

	if err := seq.SpeakText(context.Background(), "Testing voice"); err != nil {
		t.Fatalf("SpeakText() after sequence error = %v", err)
	}
	if got := engine.Spoken(); !slices.Equal(got, []string{"What are you doing?", "Testing voice"}) {
		t.Errorf("engine spoke %v", got)
	}
	if seq.Running() {
		t.Error("Running() = true after SpeakText")
	}
	if got := seq.State().Current(); got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
}

func TestGoDroppedWhileSpeakingText(t *testing.T) {
	engine := mock.New()
	release := make(chan struct{})
	started := make(chan struct{})
	engine.OnSpeak(func(string) {
		close(started)
		<-release
	})
	seq := New(engine, fullSource, settings.Defaults)

	errc := make(chan error, 1)
	go func() { errc <- seq.SpeakText(context.Background(), "Testing voice") }()
	<-started

	if res := <-seq.Go(context.Background()); !res.Dropped {
		t.Errorf("Go() while speaking text = %+v, want dropped", res)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Errorf("SpeakText() error = %v", err)
	}
}

func TestSpeakTextEngineFailure(t *testing.T) {
	engine := mock.New()
	engine.SetFailure(errors.New("no audio device"))
	seq := New(engine, fullSource, settings.Defaults)
	if err := seq.SpeakText(context.Background(), "hello"); err == nil {
		t.Error("SpeakText() error = nil, want engine error")
	}
}

func TestGoDropsOverlap(t *testing.T) {
	engine := mock.New()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	engine.OnSpeak(func(string) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})
	seq := New(engine, fullSource, settingsWith(func(s *settings.Settings) { s.AudioCount = 1 }))

	first := seq.Go(context.Background())
	<-started
	if !seq.Running() {
		t.Error("Running() = false during sequence")
	}

	second := <-seq.Go(context.Background())
	if !second.Dropped {
		t.Error("second Go() not dropped while first is running")
	}

	close(release)
	res := <-first
	if res.Dropped || res.Err != nil || !slices.Equal(res.Messages(), []string{"What are you doing?"}) {
		t.Errorf("first result = %+v", res)
	}
	if _, ok := <-first; ok {
		t.Error("result channel not closed")
	}
	if seq.Running() {
		t.Error("Running() = true after sequence")
	}
}

func TestOnSpoken(t *testing.T) {
	var got []Utterance
	seq := New(mock.New(), fullSource, settingsWith(func(s *settings.Settings) { s.AudioCount = 2 }), WithDelay(0))
	seq.OnSpoken(func(u Utterance) { got = append(got, u) })
	if _, err := seq.PlaySequence(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Category != messages.Motivation {
		t.Errorf("OnSpoken saw %+v", got)
	}
}

func TestCaption(t *testing.T) {
	tests := []struct {
		msgs []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a b"},
		{[]string{"a", "b", "c"}, "a b, c"},
		{[]string{"a", "b", "c", "d"}, "a b, c d"},
	}
	for _, tt := range tests {
		if got := Caption(tt.msgs); got != tt.want {
			t.Errorf("Caption(%q) = %q, want %q", tt.msgs, got, tt.want)
		}
	}
}

func TestStateMachine(t *testing.T) {
	sm := NewStateMachine()
	var seen []StateType
	sm.OnChange(func(_, to StateType) { seen = append(seen, to) })

	if sm.Transition(StateWaiting) {
		t.Error("idle -> waiting allowed")
	}
	for _, to := range []StateType{StateSpeaking, StateWaiting, StateSpeaking, StateIdle} {
		if !sm.Transition(to) {
			t.Errorf("transition to %v rejected", to)
		}
	}
	if len(seen) != 4 || sm.Current() != StateIdle {
		t.Errorf("seen = %v, current = %v", seen, sm.Current())
	}
	if got := StateType(9).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
