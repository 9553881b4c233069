package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/nudge/internal/timer"
)

// tickMsg carries a scheduled callback into the update loop so the countdown
// only ever changes on the program's goroutine.
type tickMsg struct{ fn func() }

// Scheduler is a timer.Scheduler whose ticks are delivered as messages to a
// running tea.Program. Ticks fired before Attach are dropped.
type Scheduler struct {
	mu sync.Mutex
	p  *tea.Program
}

var _ timer.Scheduler = (*Scheduler)(nil)

// NewScheduler returns a scheduler with no program attached.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Attach sets the program that receives ticks.
func (s *Scheduler) Attach(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

// Post sends msg to the attached program without blocking the caller.
func (s *Scheduler) Post(msg tea.Msg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		go p.Send(msg)
	}
}

// Every implements timer.Scheduler.
func (s *Scheduler) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				p := s.p
				s.mu.Unlock()
				if p == nil {
					continue
				}
				p.Send(tickMsg{fn: fn})
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
