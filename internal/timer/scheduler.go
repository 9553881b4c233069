package timer

import (
	"sync"
	"time"
)

// Scheduler runs fn every d until the returned stop function is called.
// Stop is idempotent. A tick already being delivered may still arrive.
type Scheduler interface {
	Every(d time.Duration, fn func()) (stop func())
}

// TickerScheduler drives callbacks from a time.Ticker on its own goroutine.
type TickerScheduler struct{}

// Every implements Scheduler.
func (TickerScheduler) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	var mu sync.Mutex
	stopped := false

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				mu.Lock()
				if stopped {
					mu.Unlock()
					return
				}
				mu.Unlock()
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			ticker.Stop()
			close(done)
		})
	}
}

// ManualScheduler fires callbacks only when Advance is called.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]func()
}

// NewManualScheduler returns an empty ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{jobs: make(map[int]func())}
}

// Every implements Scheduler. The interval is ignored.
func (m *ManualScheduler) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.jobs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
	}
}

// Advance fires every registered callback n times. Callbacks stopped during
// the advance are not fired again.
func (m *ManualScheduler) Advance(n int) {
	for range n {
		m.mu.Lock()
		ids := make([]int, 0, len(m.jobs))
		for id := range m.jobs {
			ids = append(ids, id)
		}
		m.mu.Unlock()

		for _, id := range ids {
			m.mu.Lock()
			fn, ok := m.jobs[id]
			m.mu.Unlock()
			if ok {
				fn()
			}
		}
	}
}

// Active reports how many callbacks are registered.
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}
