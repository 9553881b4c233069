// Package tts defines the speech engine abstraction used to read messages
// aloud, along with its configuration and errors. Implementations live in
// tts/engines.
package tts

import (
	"context"
	"fmt"
	"strings"
)

// Engine speaks text aloud. Speak blocks until playback has finished, failed
// or ctx is done; cancelling ctx stops the utterance.
type Engine interface {
	// Name identifies the engine in logs and configuration.
	Name() string

	// Available reports whether the engine's helpers are installed.
	Available() bool

	// Speak synthesizes and plays text.
	Speak(ctx context.Context, text string, opts Options) error

	// Voices lists the voices the engine can use, in a stable order.
	Voices(ctx context.Context) ([]Voice, error)
}

// Options control a single utterance.
type Options struct {
	Voice  string  // Voice identifier; empty uses the engine default
	Rate   float64 // Speech rate multiplier (1.0 = normal)
	Pitch  float64 // Pitch multiplier (1.0 = normal)
	Volume float64 // Volume level (0.0 to 1.0)
}

// Limits for Options.
const (
	MinRate  = 0.1
	MaxRate  = 3.0
	MinPitch = 0.0
	MaxPitch = 2.0
)

// DefaultOptions returns normal rate, pitch and full volume.
func DefaultOptions() Options {
	return Options{Rate: 1, Pitch: 1, Volume: 1}
}

// Normalized clamps every field to its valid range. A zero rate means
// normal speed.
func (o Options) Normalized() Options {
	if o.Rate == 0 {
		o.Rate = 1
	}
	o.Rate = min(max(o.Rate, MinRate), MaxRate)
	o.Pitch = min(max(o.Pitch, MinPitch), MaxPitch)
	o.Volume = min(max(o.Volume, 0), 1)
	o.Voice = strings.TrimSpace(o.Voice)
	return o
}

// Voice describes a voice an engine can speak with.
type Voice struct {
	ID       string // Voice identifier passed back to the engine
	Name     string // Human-readable name
	Language string // Language code (e.g., "en-US")
}

func (v Voice) String() string {
	if v.Language == "" {
		return v.Name
	}
	return fmt.Sprintf("%s (%s)", v.Name, v.Language)
}

// VoiceAt returns the ID of voices[i], or "" for the engine default when i
// is out of range.
func VoiceAt(voices []Voice, i int) string {
	if i < 0 || i >= len(voices) {
		return ""
	}
	return voices[i].ID
}
