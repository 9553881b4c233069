package timer

import (
	"testing"

	"github.com/dgnsrekt/nudge/internal/settings"
)

type fixedSource int

func (f fixedSource) Resolve() int { return int(f) }

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{65, "01:05"},
		{600, "10:00"},
		{3599, "59:59"},
		// hours are zero-padded like the other fields
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{36000, "10:00:00"},
		{-4, "00:00"},
	}

	for _, tt := range tests {
		if got := FormatTime(tt.seconds); got != tt.want {
			t.Errorf("FormatTime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestResolverFixed(t *testing.T) {
	tests := []struct {
		name    string
		h, m, s int
		want    int
	}{
		{"seconds only", 0, 0, 5, 5},
		{"mixed", 1, 2, 3, 3723},
		{"zero floors to one", 0, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := settings.Defaults()
			st.Hours, st.Minutes, st.Seconds = tt.h, tt.m, tt.s
			r := NewResolver(func() settings.Settings { return st })
			if got := r.Resolve(); got != tt.want {
				t.Errorf("Resolve() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolverRandomDegenerateRange(t *testing.T) {
	st := settings.Defaults()
	st.RandomMode = true
	st.RandomMinMinutes = 5
	st.RandomMaxMinutes = 5

	r := NewResolver(func() settings.Settings { return st }).WithRand(func(int) int {
		t.Fatal("random source must not be consulted for a degenerate range")
		return 0
	})
	for range 20 {
		if got := r.Resolve(); got != 300 {
			t.Fatalf("Resolve() = %d, want 300", got)
		}
	}
}

func TestResolverRandomRange(t *testing.T) {
	st := settings.Defaults()
	st.RandomMode = true
	st.RandomMinMinutes = 10 // swapped bounds are reordered
	st.RandomMaxMinutes = 5

	tests := []struct {
		draw int
		want int
	}{
		{0, 300},
		{150, 450},
		{300, 600},
	}

	for _, tt := range tests {
		var gotN int
		r := NewResolver(func() settings.Settings { return st }).WithRand(func(n int) int {
			gotN = n
			return tt.draw
		})
		if got := r.Resolve(); got != tt.want {
			t.Errorf("Resolve() with draw %d = %d, want %d", tt.draw, got, tt.want)
		}
		if gotN != 301 {
			t.Errorf("random source called with n = %d, want 301", gotN)
		}
	}
}

func TestResolverRandomZeroBoundsFloor(t *testing.T) {
	st := settings.Defaults()
	st.RandomMode = true
	st.RandomMinMinutes, st.RandomMaxMinutes = 0, 0

	r := NewResolver(func() settings.Settings { return st })
	if got := r.Resolve(); got != 1 {
		t.Errorf("Resolve() = %d, want 1", got)
	}
}

func TestEngineRunsToCompletion(t *testing.T) {
	st := settings.Defaults()
	st.Hours, st.Minutes, st.Seconds, st.RandomMode = 0, 0, 5, false

	sched := NewManualScheduler()
	e := NewEngine(NewResolver(func() settings.Settings { return st }), sched)

	completions := 0
	e.OnComplete(func() { completions++ })

	e.Start()
	if got := e.State(); got.TotalSeconds != 5 || got.RemainingSeconds != 5 || !got.Running {
		t.Fatalf("after Start state = %+v", got)
	}

	sched.Advance(5)

	got := e.State()
	if got.RemainingSeconds != 0 {
		t.Errorf("RemainingSeconds = %d, want 0", got.RemainingSeconds)
	}
	if got.Running {
		t.Error("engine still running after completion")
	}
	if completions != 1 {
		t.Errorf("completions = %d, want 1", completions)
	}
	if sched.Active() != 0 {
		t.Errorf("scheduler still has %d active jobs", sched.Active())
	}

	sched.Advance(3)
	if completions != 1 {
		t.Errorf("completions after extra ticks = %d, want 1", completions)
	}
}

func TestEnginePauseResume(t *testing.T) {
	sched := NewManualScheduler()
	e := NewEngine(fixedSource(10), sched)

	e.Start()
	sched.Advance(4)
	e.Pause()

	paused := e.State()
	if paused.Running || paused.RemainingSeconds != 6 || paused.TotalSeconds != 10 {
		t.Fatalf("after Pause state = %+v", paused)
	}

	sched.Advance(3)
	if e.State().RemainingSeconds != 6 {
		t.Error("paused engine kept ticking")
	}

	e.Start()
	if got := e.State(); got.TotalSeconds != 10 || got.RemainingSeconds != 6 {
		t.Errorf("after resume state = %+v, want total 10 remaining 6", got)
	}
	sched.Advance(1)
	if got := e.State().RemainingSeconds; got != 5 {
		t.Errorf("RemainingSeconds = %d, want 5", got)
	}
}

func TestEngineStartIsIdempotent(t *testing.T) {
	sched := NewManualScheduler()
	e := NewEngine(fixedSource(10), sched)

	e.Start()
	e.Start()
	if sched.Active() != 1 {
		t.Fatalf("active jobs = %d, want 1", sched.Active())
	}
	sched.Advance(1)
	if got := e.State().RemainingSeconds; got != 9 {
		t.Errorf("RemainingSeconds = %d, want 9", got)
	}
}

func TestEngineStopAndReset(t *testing.T) {
	sched := NewManualScheduler()
	source := fixedSource(8)
	e := NewEngine(source, sched)

	if got := e.State(); got.TotalSeconds != DefaultTotal {
		t.Fatalf("initial total = %d, want %d", got.TotalSeconds, DefaultTotal)
	}

	e.Start()
	sched.Advance(3)
	e.Stop()
	if got := e.State(); got.Running || got.RemainingSeconds != 8 {
		t.Errorf("after Stop state = %+v, want stopped at 8", got)
	}

	e.Reset()
	if got := e.State(); got.TotalSeconds != 8 || got.RemainingSeconds != 8 {
		t.Errorf("after Reset state = %+v", got)
	}
}

func TestEngineRestartAfterCompletion(t *testing.T) {
	sched := NewManualScheduler()
	e := NewEngine(fixedSource(2), sched)

	e.Start()
	sched.Advance(2)
	e.Start()
	if got := e.State(); got.RemainingSeconds != 2 || !got.Running {
		t.Errorf("restart state = %+v, want running at 2", got)
	}
}

func TestEngineRendersEveryChange(t *testing.T) {
	sched := NewManualScheduler()
	e := NewEngine(fixedSource(3), sched)

	var frames []string
	e.OnRender(func(s string, _ TimerState) { frames = append(frames, s) })

	e.Start()
	sched.Advance(3)

	want := []string{"00:03", "00:02", "00:01", "00:00"}
	if len(frames) != len(want) {
		t.Fatalf("frames = %v, want %v", frames, want)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, frames[i], want[i])
		}
	}
}

func TestEngineCompletionMayRestart(t *testing.T) {
	sched := NewManualScheduler()
	e := NewEngine(fixedSource(1), sched)

	runs := 0
	e.OnComplete(func() {
		runs++
		if runs < 3 {
			e.Reset()
			e.Start()
		}
	})

	e.Start()
	sched.Advance(5)
	if runs != 3 {
		t.Errorf("runs = %d, want 3", runs)
	}
}

func TestTimerStateProgress(t *testing.T) {
	tests := []struct {
		state TimerState
		want  float64
	}{
		{TimerState{TotalSeconds: 10, RemainingSeconds: 10}, 0},
		{TimerState{TotalSeconds: 10, RemainingSeconds: 5}, 0.5},
		{TimerState{TotalSeconds: 10, RemainingSeconds: 0}, 1},
		{TimerState{}, 0},
	}
	for _, tt := range tests {
		if got := tt.state.Progress(); got != tt.want {
			t.Errorf("%+v.Progress() = %v, want %v", tt.state, got, tt.want)
		}
	}
}
