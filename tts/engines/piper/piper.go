// Package piper provides the Piper TTS engine integration. Piper writes raw
// 16-bit mono PCM which is played through an audio.Sink.
package piper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/audio"
	"github.com/dgnsrekt/nudge/internal/cache"
	"github.com/dgnsrekt/nudge/internal/proc"
	"github.com/dgnsrekt/nudge/tts"
	"github.com/spf13/afero"
)

// maxTextSize bounds a single utterance.
const maxTextSize = 5000

// Runner executes a command with stdin and returns its stdout.
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// ModelConfig is the part of a voice model's .onnx.json we use.
type ModelConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	SpeakerIDMap map[string]int `json:"speaker_id_map"`
}

// Engine implements tts.Engine using the piper binary.
type Engine struct {
	cfg   tts.PiperConfig
	fs    afero.Fs
	sink  audio.Sink
	cache *cache.Cache
	run   Runner

	once  sync.Once
	model ModelConfig
	mErr  error
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache caches synthesized PCM.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithRunner replaces the process runner.
func WithRunner(run Runner) Option {
	return func(e *Engine) { e.run = run }
}

// WithFs reads model files from fsys.
func WithFs(fsys afero.Fs) Option {
	return func(e *Engine) { e.fs = fsys }
}

// New creates a Piper engine playing through sink.
func New(cfg tts.PiperConfig, sink audio.Sink, opts ...Option) *Engine {
	e := &Engine{
		cfg:  cfg,
		fs:   afero.NewOsFs(),
		sink: sink,
		run:  proc.Output,
	}
	for _, o := range opts {
		o(e)
	}
	if e.cfg.Binary == "" {
		e.cfg.Binary = "piper"
	}
	if e.cfg.ConfigPath == "" && e.cfg.Model != "" {
		e.cfg.ConfigPath = e.cfg.Model + ".json"
	}
	return e
}

// Name implements tts.Engine.
func (e *Engine) Name() string {
	return tts.EnginePiper
}

// Available reports whether the binary is on PATH and the model exists.
func (e *Engine) Available() bool {
	if e.cfg.Model == "" || !proc.Available(e.cfg.Binary) {
		return false
	}
	ok, err := afero.Exists(e.fs, e.cfg.Model)
	return ok && err == nil
}

// modelConfig loads the model's JSON config once. A missing config is not an
// error; the configured sample rate and a single voice are used.
func (e *Engine) modelConfig() (ModelConfig, error) {
	e.once.Do(func() {
		data, err := afero.ReadFile(e.fs, e.cfg.ConfigPath)
		if err != nil {
			log.Debug("piper model config not loaded", "path", e.cfg.ConfigPath, "error", err)
			return
		}
		if err := json.Unmarshal(data, &e.model); err != nil {
			e.mErr = fmt.Errorf("parse piper model config: %w", err)
		}
	})
	return e.model, e.mErr
}

func (e *Engine) sampleRate() int {
	if m, _ := e.modelConfig(); m.Audio.SampleRate > 0 {
		return m.Audio.SampleRate
	}
	return e.cfg.SampleRate
}

// Speak implements tts.Engine.
func (e *Engine) Speak(ctx context.Context, text string, opts tts.Options) error {
	pcm, err := e.Synthesize(ctx, text, opts)
	if err != nil {
		return err
	}
	opts = opts.Normalized()
	clip := audio.Clip{Data: pcm, SampleRate: e.sampleRate(), Channels: 1}
	if err := e.sink.Play(ctx, clip, opts.Volume); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return tts.NewSpeechError(err, tts.EnginePiper, "play")
	}
	return nil
}

// Synthesize returns raw PCM for text, from the cache when possible.
func (e *Engine) Synthesize(ctx context.Context, text string, opts tts.Options) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, tts.ErrEmptyText
	}
	if len(text) > maxTextSize {
		return nil, fmt.Errorf("%w: %d characters (max %d)", tts.ErrTextTooLong, len(text), maxTextSize)
	}
	opts = opts.Normalized()

	key := cache.Key(tts.EnginePiper+":"+e.cfg.Model, text, opts.Voice, opts.Rate, 0)
	if e.cache != nil {
		if pcm, ok := e.cache.Get(key); ok {
			log.Debug("piper cache hit", "key", key)
			return pcm, nil
		}
	}

	pcm, err := e.run(ctx, []byte(text+"\n"), e.cfg.Binary, e.args(opts)...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, proc.ErrNotFound) {
			err = fmt.Errorf("%w: %v", tts.ErrEngineNotAvailable, err)
		} else {
			err = fmt.Errorf("%w: %v", tts.ErrGenerationFailed, err)
		}
		return nil, tts.NewSpeechError(err, tts.EnginePiper, "synthesize")
	}
	if len(pcm) == 0 {
		return nil, tts.NewSpeechError(fmt.Errorf("%w: piper produced no audio", tts.ErrGenerationFailed), tts.EnginePiper, "synthesize")
	}

	if e.cache != nil {
		e.cache.Put(key, pcm)
	}
	return pcm, nil
}

func (e *Engine) args(opts tts.Options) []string {
	args := []string{
		"--model", e.cfg.Model,
		"--output-raw",
		"--length-scale", strconv.FormatFloat(1/opts.Rate, 'f', 2, 64),
	}
	if e.cfg.ConfigPath != "" {
		args = append(args, "--config", e.cfg.ConfigPath)
	}
	if opts.Voice != "" {
		args = append(args, "--speaker", opts.Voice)
	}
	return args
}

// Voices lists the model's speakers ordered by speaker id. Single-speaker
// models report one voice with an empty ID.
func (e *Engine) Voices(context.Context) ([]tts.Voice, error) {
	m, err := e.modelConfig()
	if err != nil {
		return nil, err
	}
	if len(m.SpeakerIDMap) == 0 {
		name := strings.TrimSuffix(filepath.Base(e.cfg.Model), filepath.Ext(e.cfg.Model))
		return []tts.Voice{{ID: "", Name: name, Language: m.Language.Code}}, nil
	}
	voices := make([]tts.Voice, 0, len(m.SpeakerIDMap))
	ids := make(map[string]int, len(m.SpeakerIDMap))
	for name, id := range m.SpeakerIDMap {
		v := tts.Voice{ID: strconv.Itoa(id), Name: name, Language: m.Language.Code}
		ids[v.ID] = id
		voices = append(voices, v)
	}
	sort.Slice(voices, func(i, j int) bool { return ids[voices[i].ID] < ids[voices[j].ID] })
	return voices, nil
}
