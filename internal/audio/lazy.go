package audio

import "context"

// Lazy is a Sink that opens the shared player on first use, so a session
// that only uses the system engine never touches the sound device.
type Lazy struct {
	config PlayerConfig
}

// NewLazy returns a Lazy sink for config.
func NewLazy(config PlayerConfig) *Lazy {
	return &Lazy{config: config}
}

// Play implements Sink.
func (l *Lazy) Play(ctx context.Context, clip Clip, volume float64) error {
	p, err := Shared(l.config)
	if err != nil {
		return err
	}
	return p.Play(ctx, clip, volume)
}
