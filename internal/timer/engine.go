package timer

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTotal is the duration the engine is created with, in seconds.
const DefaultTotal = 600

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// TimerState is a snapshot of the countdown.
type TimerState struct {
	TotalSeconds     int
	RemainingSeconds int
	Running          bool
}

// Fresh reports whether the next Start begins a new run. A completed run
// counts as fresh so Start never ticks below zero.
func (s TimerState) Fresh() bool {
	return s.RemainingSeconds == s.TotalSeconds || s.RemainingSeconds == 0
}

// Progress returns the elapsed fraction of the run in [0, 1].
func (s TimerState) Progress() float64 {
	if s.TotalSeconds <= 0 {
		return 0
	}
	return float64(s.TotalSeconds-s.RemainingSeconds) / float64(s.TotalSeconds)
}

// Engine is the countdown state machine. It is safe for concurrent use;
// callbacks are invoked without the internal lock held, so they may call
// back into the engine.
type Engine struct {
	mu       sync.Mutex
	state    TimerState
	source   DurationSource
	sched    Scheduler
	stopTick func()
	gen      int

	onRender   func(string, TimerState)
	onComplete func()
}

// NewEngine returns a stopped engine with the default total.
func NewEngine(source DurationSource, sched Scheduler) *Engine {
	if sched == nil {
		sched = TickerScheduler{}
	}
	return &Engine{
		state:  TimerState{TotalSeconds: DefaultTotal, RemainingSeconds: DefaultTotal},
		source: source,
		sched:  sched,
	}
}

// OnRender sets the callback that receives the formatted remaining time after
// every state change.
func (e *Engine) OnRender(fn func(formatted string, state TimerState)) {
	e.mu.Lock()
	e.onRender = fn
	e.mu.Unlock()
}

// OnComplete sets the callback invoked once each time a run reaches zero.
func (e *Engine) OnComplete(fn func()) {
	e.mu.Lock()
	e.onComplete = fn
	e.mu.Unlock()
}

// State returns a snapshot of the countdown.
func (e *Engine) State() TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Formatted returns the remaining time as displayed.
func (e *Engine) Formatted() string {
	return FormatTime(e.State().RemainingSeconds)
}

// Start begins or resumes the countdown. A fresh run re-resolves the total.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state.Running {
		e.mu.Unlock()
		return
	}
	if e.state.Fresh() {
		e.resolveLocked()
	}
	e.state.Running = true
	e.gen++
	gen := e.gen
	e.stopTick = e.sched.Every(TickInterval, func() { e.tick(gen) })
	log.Debug("Timer started", "total", e.state.TotalSeconds, "remaining", e.state.RemainingSeconds)
	e.renderUnlock()
}

// Pause stops ticking and keeps the remaining time.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.state.Running {
		e.mu.Unlock()
		return
	}
	e.haltLocked()
	log.Debug("Timer paused", "remaining", e.state.RemainingSeconds)
	e.renderUnlock()
}

// Stop halts the countdown and rewinds to the current total.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.haltLocked()
	e.state.RemainingSeconds = e.state.TotalSeconds
	e.renderUnlock()
}

// Reset stops the countdown and re-resolves the total.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.haltLocked()
	e.resolveLocked()
	e.renderUnlock()
}

// Tick advances the countdown by one second.
func (e *Engine) Tick() {
	e.mu.Lock()
	e.tickLocked()
}

func (e *Engine) tick(gen int) {
	e.mu.Lock()
	if gen != e.gen || !e.state.Running {
		e.mu.Unlock()
		return
	}
	e.tickLocked()
}

// tickLocked is entered with the lock held and releases it.
func (e *Engine) tickLocked() {
	if e.state.RemainingSeconds <= 0 {
		e.mu.Unlock()
		return
	}
	e.state.RemainingSeconds--
	done := e.state.RemainingSeconds == 0
	if done {
		e.haltLocked()
	}
	complete := e.onComplete
	e.renderUnlock()

	if done {
		log.Debug("Timer complete", "total", e.State().TotalSeconds)
		if complete != nil {
			complete()
		}
	}
}

func (e *Engine) resolveLocked() {
	total := DefaultTotal
	if e.source != nil {
		total = max(e.source.Resolve(), MinDuration)
	}
	e.state.TotalSeconds = total
	e.state.RemainingSeconds = total
}

func (e *Engine) haltLocked() {
	if e.stopTick != nil {
		e.stopTick()
		e.stopTick = nil
	}
	e.gen++
	e.state.Running = false
}

// renderUnlock releases the lock and then notifies the render callback.
func (e *Engine) renderUnlock() {
	st := e.state
	fn := e.onRender
	e.mu.Unlock()
	if fn != nil {
		fn(FormatTime(st.RemainingSeconds), st)
	}
}
