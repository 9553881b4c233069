package engines

import (
	"context"

	"github.com/dgnsrekt/nudge/tts"
)

// Silent is the "none" engine: it accepts every utterance and says nothing.
type Silent struct{}

// Name implements tts.Engine.
func (Silent) Name() string { return tts.EngineNone }

// Available implements tts.Engine.
func (Silent) Available() bool { return true }

// Speak implements tts.Engine.
func (Silent) Speak(ctx context.Context, _ string, _ tts.Options) error { return ctx.Err() }

// Voices implements tts.Engine.
func (Silent) Voices(context.Context) ([]tts.Voice, error) { return nil, nil }
