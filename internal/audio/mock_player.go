package audio

import (
	"context"
	"sync"
	"time"
)

// MockPlayer is a Sink that records clips instead of playing them.
type MockPlayer struct {
	// Delay simulates playback time; zero uses no delay.
	Delay time.Duration
	// Err is returned from every Play call when set.
	Err error

	mu      sync.Mutex
	clips   []Clip
	volumes []float64
}

// NewMockPlayer returns a MockPlayer with no delay.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play implements Sink.
func (m *MockPlayer) Play(ctx context.Context, clip Clip, volume float64) error {
	m.mu.Lock()
	m.clips = append(m.clips, clip)
	m.volumes = append(m.volumes, volume)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	return m.Err
}

// Clips returns the clips played so far.
func (m *MockPlayer) Clips() []Clip {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Clip(nil), m.clips...)
}

// Volumes returns the volume of each Play call.
func (m *MockPlayer) Volumes() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.volumes...)
}
