package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/nudge/internal/audio"
	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/dgnsrekt/nudge/internal/settings"
	"github.com/dgnsrekt/nudge/internal/timer"
	"github.com/dgnsrekt/nudge/tts"
	"github.com/spf13/afero"
)

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (f *fakeNotifier) Notify(_ context.Context, title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.titles)
}

type fakeWindow struct {
	mu    sync.Mutex
	calls []bool
}

func (f *fakeWindow) SetAlwaysOnTop(_ context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, on)
	return nil
}

func (f *fakeWindow) last() (bool, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return false, 0
	}
	return f.calls[len(f.calls)-1], len(f.calls)
}

func newTestApp(t *testing.T, o Overrides) (*App, *timer.ManualScheduler, *fakeNotifier, *fakeWindow) {
	t.Helper()
	cfg := tts.DefaultConfig()
	cfg.Engine = tts.EngineMock
	cfg.Fallback = ""
	cfg.Cache.Enabled = false

	sched := timer.NewManualScheduler()
	n := &fakeNotifier{}
	w := &fakeWindow{}
	a, err := New(Options{
		Fs:        afero.NewMemMapFs(),
		Paths:     PathsIn("/data", "/cache"),
		TTS:       cfg,
		Overrides: o,
		Scheduler: sched,
		Sink:      audio.NewMockPlayer(),
		Notifier:  n,
		Window:    w,
		Sleeper:   func(context.Context, time.Duration) error { return nil },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, sched, n, w
}

func TestNewSeedsMessages(t *testing.T) {
	a, _, _, _ := newTestApp(t, Overrides{})
	for _, cat := range messages.Categories() {
		if a.Catalog.Len(cat) == 0 {
			t.Errorf("category %d has no messages", cat)
		}
		ok, _ := afero.Exists(a.Fs, "/data/Archive/"+cat.FileName())
		if !ok {
			t.Errorf("archive copy of %s missing", cat.FileName())
		}
	}
}

func TestCompletionSequence(t *testing.T) {
	a, sched, n, _ := newTestApp(t, Overrides{Duration: 3 * time.Second})

	done := make(chan []string, 1)
	a.Timer.OnComplete(func() {
		res := <-a.Complete(context.Background())
		done <- res.Messages()
	})
	a.Timer.Start()
	if got := a.Timer.State().TotalSeconds; got != 3 {
		t.Fatalf("TotalSeconds = %d, want 3", got)
	}
	sched.Advance(3)

	select {
	case msgs := <-done:
		if len(msgs) != settings.Defaults().AudioCount {
			t.Errorf("spoke %d messages, want %d", len(msgs), settings.Defaults().AudioCount)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("speech sequence did not finish")
	}

	deadline := time.Now().Add(5 * time.Second)
	for n.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n.count() != 1 {
		t.Errorf("notifications = %d, want 1", n.count())
	}
}

func TestNotificationsDisabled(t *testing.T) {
	a, _, n, _ := newTestApp(t, Overrides{})
	if err := a.Settings.Update(settings.KeyNotifications, false); err != nil {
		t.Fatal(err)
	}
	if err := a.Notifier.Notify(context.Background(), "t", "b"); err != nil {
		t.Fatal(err)
	}
	if n.count() != 0 {
		t.Errorf("notifications = %d, want 0", n.count())
	}
}

func TestAlwaysOnTopHook(t *testing.T) {
	a, _, _, w := newTestApp(t, Overrides{})
	if err := a.Settings.Update(settings.KeyAlwaysOnTop, true); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		on, n := w.last()
		if n > 0 {
			if !on {
				t.Error("SetAlwaysOnTop(false), want true")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("window collaborator not called")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOverrides(t *testing.T) {
	s := Overrides{Duration: 90*time.Minute + 5*time.Second}.Apply(settings.Defaults())
	if s.Hours != 1 || s.Minutes != 30 || s.Seconds != 5 || s.RandomMode {
		t.Errorf("fixed override = %+v", s)
	}
	s = Overrides{Random: true, Min: time.Minute, Max: 2 * time.Hour}.Apply(settings.Defaults())
	if !s.RandomMode || s.RandomMinMinutes != 1 || s.RandomMaxHours != 2 || s.RandomMaxMinutes != 0 {
		t.Errorf("random override = %+v", s)
	}
	if got := timer.Fixed(Overrides{}.Apply(settings.Defaults())); got != 600 {
		t.Errorf("no override total = %d, want 600", got)
	}
}
