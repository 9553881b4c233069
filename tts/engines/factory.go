package engines

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/audio"
	"github.com/dgnsrekt/nudge/internal/cache"
	"github.com/dgnsrekt/nudge/tts"
	"github.com/dgnsrekt/nudge/tts/engines/gtts"
	"github.com/dgnsrekt/nudge/tts/engines/mock"
	"github.com/dgnsrekt/nudge/tts/engines/piper"
	"github.com/dgnsrekt/nudge/tts/engines/system"
	"github.com/spf13/afero"
)

// Handle is the configured engine together with the resources it owns.
type Handle struct {
	tts.Engine
	cache *cache.Cache
}

// Close releases the synthesis cache.
func (h *Handle) Close() error {
	if h.cache == nil {
		return nil
	}
	return h.cache.Close()
}

// CacheStats returns memory and disk cache stats; ok is false without a
// cache.
func (h *Handle) CacheStats() (memory, disk cache.Stats, ok bool) {
	if h.cache == nil {
		return memory, disk, false
	}
	memory, disk = h.cache.Stats()
	return memory, disk, true
}

// Deps are the collaborators engines need.
type Deps struct {
	Fs   afero.Fs
	Sink audio.Sink
}

// New builds the engine named by cfg.Engine, wrapped in a FallbackEngine when
// cfg.Fallback names a different engine.
func New(cfg tts.Config, deps Deps) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Sink == nil {
		deps.Sink = audio.NewLazy(audio.DefaultPlayerConfig())
	}

	h := &Handle{}
	if cfg.Cache.Enabled {
		c, err := cache.New(deps.Fs, cache.Config{
			Dir:              cfg.Cache.Dir,
			MemoryCapacity:   int64(cfg.Cache.MemoryMB) << 20,
			DiskCapacity:     int64(cfg.Cache.DiskMB) << 20,
			CompressionLevel: cfg.Cache.Level,
		})
		if err != nil {
			log.Warn("Speech cache disabled", "error", err)
		} else {
			h.cache = c
		}
	}

	primary, err := h.build(cfg.Engine, cfg, deps)
	if err != nil {
		return nil, err
	}
	h.Engine = primary

	if cfg.Fallback != "" && cfg.Fallback != primary.Name() && cfg.Fallback != tts.EngineAuto {
		fb, err := h.build(cfg.Fallback, cfg, deps)
		if err != nil {
			return nil, err
		}
		h.Engine = NewFallbackEngine(primary, fb, cfg.MaxFailures)
	}

	log.Debug("speech engine ready", "engine", h.Name(), "available", h.Available())
	return h, nil
}

func (h *Handle) build(name string, cfg tts.Config, deps Deps) (tts.Engine, error) {
	switch name {
	case tts.EngineSystem:
		return system.New(cfg.System), nil
	case tts.EnginePiper:
		return piper.New(cfg.Piper, deps.Sink, piper.WithCache(h.cache), piper.WithFs(deps.Fs)), nil
	case tts.EngineGTTS:
		return gtts.New(cfg.GTTS, deps.Sink, gtts.WithCache(h.cache)), nil
	case tts.EngineMock:
		return mock.New(), nil
	case tts.EngineNone:
		return Silent{}, nil
	case tts.EngineAuto:
		return h.auto(cfg, deps), nil
	}
	return nil, fmt.Errorf("%w: %q", tts.ErrUnknownEngine, name)
}

// auto picks the first available of piper, system and gtts; with none
// installed it falls back to the system engine so errors name a real
// command.
func (h *Handle) auto(cfg tts.Config, deps Deps) tts.Engine {
	candidates := []tts.Engine{
		piper.New(cfg.Piper, deps.Sink, piper.WithCache(h.cache), piper.WithFs(deps.Fs)),
		system.New(cfg.System),
		gtts.New(cfg.GTTS, deps.Sink, gtts.WithCache(h.cache)),
	}
	if e := FirstAvailable(candidates...); e != nil {
		return e
	}
	log.Warn("No speech engine found; install espeak-ng, piper or gtts-cli")
	return candidates[1]
}

// FirstAvailable returns the first available engine, or nil.
func FirstAvailable(candidates ...tts.Engine) tts.Engine {
	for _, e := range candidates {
		if e.Available() {
			return e
		}
	}
	return nil
}
