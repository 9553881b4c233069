package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Sink plays a PCM clip to completion.
type Sink interface {
	Play(ctx context.Context, clip Clip, volume float64) error
}

// Clip is a chunk of signed 16-bit little-endian PCM.
type Clip struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// Duration returns how long the clip plays for.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	samples := len(c.Data) / (c.Channels * 2)
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// ErrEmptyClip is returned when asked to play nothing.
var ErrEmptyClip = errors.New("audio data is empty")

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	Channels   int // 1 = mono, 2 = stereo
	BufferSize time.Duration
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1,
		BufferSize: 100 * time.Millisecond,
	}
}

func validateConfig(config PlayerConfig) error {
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	return nil
}

// pollInterval is how often playback completion is checked.
const pollInterval = 10 * time.Millisecond

// Player plays clips through a single oto context. oto allows only one
// context per process, so use Shared rather than creating several.
type Player struct {
	context    *oto.Context
	sampleRate int
	channels   int

	// one clip at a time
	mu sync.Mutex
}

var (
	sharedOnce   sync.Once
	sharedPlayer *Player
	sharedErr    error
)

// Shared returns the process-wide player, creating it on first use.
func Shared(config PlayerConfig) (*Player, error) {
	sharedOnce.Do(func() {
		sharedPlayer, sharedErr = newPlayer(config)
	})
	return sharedPlayer, sharedErr
}

func newPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	}
	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	log.Debug("audio context ready", "sample_rate", config.SampleRate, "channels", config.Channels)
	return &Player{
		context:    ctx,
		sampleRate: config.SampleRate,
		channels:   config.Channels,
	}, nil
}

// Play implements Sink. Clips at another sample rate are resampled; stereo
// output duplicates mono input.
func (p *Player) Play(ctx context.Context, clip Clip, volume float64) error {
	if len(clip.Data) == 0 {
		return ErrEmptyClip
	}
	data := Resample(clip.Data, clip.SampleRate, p.sampleRate)
	if clip.Channels == 1 && p.channels == 2 {
		data = monoToStereo(data)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// The reader keeps data reachable until the player is closed.
	player := p.context.NewPlayer(bytes.NewReader(data))
	defer func() { _ = player.Close() }()

	player.SetVolume(clampVolume(volume))
	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				return player.Err()
			}
		}
	}
}

func clampVolume(v float64) float64 {
	return min(max(v, 0), 1)
}
