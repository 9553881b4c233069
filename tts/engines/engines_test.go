package engines

import (
	"context"
	"errors"
	"testing"

	"github.com/dgnsrekt/nudge/internal/audio"
	"github.com/dgnsrekt/nudge/tts"
	"github.com/dgnsrekt/nudge/tts/engines/mock"
	"github.com/spf13/afero"
)

func TestFallbackEngine(t *testing.T) {
	primary := mock.Named("primary")
	primary.SetFailure(errors.New("primary engine failure"))
	fallback := mock.Named("fallback")

	engine := NewFallbackEngine(primary, fallback, 2)
	ctx := context.Background()

	if err := engine.Speak(ctx, "test 1", tts.DefaultOptions()); err == nil {
		t.Error("first Speak() error = nil, want primary failure")
	}
	if err := engine.Speak(ctx, "test 2", tts.DefaultOptions()); err != nil {
		t.Errorf("second Speak() error = %v, want fallback success", err)
	}
	if got, want := engine.Status(), "Using fallback engine (primary failed 2 times)"; got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
	if got := engine.Name(); got != "fallback" {
		t.Errorf("Name() = %q, want fallback", got)
	}
	if err := engine.Speak(ctx, "test 3", tts.DefaultOptions()); err != nil {
		t.Errorf("third Speak() error = %v", err)
	}
	if got := len(primary.Calls()); got != 2 {
		t.Errorf("primary calls = %d, want 2", got)
	}
	if got := fallback.Spoken(); len(got) != 2 || got[1] != "test 3" {
		t.Errorf("fallback spoke %v", got)
	}

	engine.Reset()
	if got := engine.Name(); got != "primary" {
		t.Errorf("Name() after Reset = %q, want primary", got)
	}
}

func TestFallbackRecovery(t *testing.T) {
	primary := mock.Named("primary")
	fallback := mock.Named("fallback")
	engine := NewFallbackEngine(primary, fallback, 3)

	primary.SetFailure(errors.New("flaky"))
	_ = engine.Speak(context.Background(), "a", tts.DefaultOptions())
	primary.SetFailure(nil)
	if err := engine.Speak(context.Background(), "b", tts.DefaultOptions()); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if got, want := engine.Status(), "Using primary engine (failures: 0/3)"; got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
}

func TestFallbackIgnoresCancel(t *testing.T) {
	primary := mock.Named("primary")
	primary.SetFailure(context.Canceled)
	engine := NewFallbackEngine(primary, mock.Named("fallback"), 1)
	if err := engine.Speak(context.Background(), "x", tts.DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("Speak() error = %v, want context.Canceled", err)
	}
	if got := engine.Name(); got != "primary" {
		t.Errorf("Name() = %q, want primary", got)
	}
}

func TestFallbackUnavailablePrimary(t *testing.T) {
	primary := mock.Named("primary")
	primary.SetAvailable(false)
	engine := NewFallbackEngine(primary, mock.Named("fallback"), 3)
	if got := engine.Name(); got != "fallback" {
		t.Errorf("Name() = %q, want fallback", got)
	}
}

func TestNew(t *testing.T) {
	deps := Deps{Fs: afero.NewMemMapFs(), Sink: audio.NewMockPlayer()}
	tests := []struct {
		engine   string
		fallback string
		want     string
		wantErr  error
	}{
		{tts.EngineMock, "", "mock", nil},
		{tts.EngineNone, "", "none", nil},
		{tts.EngineGTTS, "", "gtts", nil},
		{tts.EngineMock, tts.EngineNone, "mock", nil},
		{"festival", "", "", tts.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			cfg := tts.DefaultConfig()
			cfg.Engine = tt.engine
			cfg.Fallback = tt.fallback
			cfg.Cache.Enabled = false
			h, err := New(cfg, deps)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer func() { _ = h.Close() }()
			if got := h.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewWithCache(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Engine = tts.EngineMock
	cfg.Cache.Dir = "/cache"
	h, err := New(cfg, Deps{Fs: afero.NewMemMapFs(), Sink: audio.NewMockPlayer()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = h.Close() }()
	if _, _, ok := h.CacheStats(); !ok {
		t.Error("CacheStats() ok = false, want a cache")
	}
}

func TestSilent(t *testing.T) {
	var s Silent
	if err := s.Speak(context.Background(), "x", tts.DefaultOptions()); err != nil {
		t.Errorf("Speak() error = %v", err)
	}
}
