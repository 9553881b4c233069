// Package gtts speaks through Google Translate TTS using gtts-cli, converting
// the MP3 it produces to PCM with ffmpeg. No API key is needed, but requests
// are rate limited to avoid being blocked.
package gtts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/audio"
	"github.com/dgnsrekt/nudge/internal/cache"
	"github.com/dgnsrekt/nudge/internal/proc"
	"github.com/dgnsrekt/nudge/tts"
	"golang.org/x/time/rate"
)

const (
	// SampleRate is the rate ffmpeg is asked to produce.
	SampleRate = 44100

	maxTextSize = 5000
	maxMP3Size  = 50 * 1024 * 1024
)

// Runner executes a command with stdin and returns its stdout.
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// Engine implements tts.Engine using gtts-cli and ffmpeg.
type Engine struct {
	cfg     tts.GTTSConfig
	sink    audio.Sink
	cache   *cache.Cache
	run     Runner
	limiter *rate.Limiter
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache caches converted PCM.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithRunner replaces the process runner.
func WithRunner(run Runner) Option {
	return func(e *Engine) { e.run = run }
}

// New creates a gTTS engine playing through sink.
func New(cfg tts.GTTSConfig, sink audio.Sink, opts ...Option) *Engine {
	if cfg.Binary == "" {
		cfg.Binary = "gtts-cli"
	}
	if cfg.FFmpeg == "" {
		cfg.FFmpeg = "ffmpeg"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	e := &Engine{
		cfg:     cfg,
		sink:    sink,
		run:     proc.Output,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Name implements tts.Engine.
func (e *Engine) Name() string {
	return tts.EngineGTTS
}

// Available reports whether both gtts-cli and ffmpeg are on PATH.
func (e *Engine) Available() bool {
	return proc.Available(e.cfg.Binary) && proc.Available(e.cfg.FFmpeg)
}

// Speak implements tts.Engine.
func (e *Engine) Speak(ctx context.Context, text string, opts tts.Options) error {
	pcm, err := e.Synthesize(ctx, text, opts)
	if err != nil {
		return err
	}
	opts = opts.Normalized()
	clip := audio.Clip{Data: pcm, SampleRate: SampleRate, Channels: 1}
	if err := e.sink.Play(ctx, clip, opts.Volume); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return tts.NewSpeechError(err, tts.EngineGTTS, "play")
	}
	return nil
}

// language returns the voice when one is selected; gTTS voices are
// language codes.
func (e *Engine) language(opts tts.Options) string {
	if opts.Voice != "" {
		return opts.Voice
	}
	return e.cfg.Language
}

// Synthesize returns PCM for text: text → gtts-cli → MP3 → ffmpeg → PCM.
func (e *Engine) Synthesize(ctx context.Context, text string, opts tts.Options) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, tts.ErrEmptyText
	}
	if len(text) > maxTextSize {
		return nil, fmt.Errorf("%w: %d characters (max %d)", tts.ErrTextTooLong, len(text), maxTextSize)
	}
	opts = opts.Normalized()
	lang := e.language(opts)

	key := cache.Key(tts.EngineGTTS, text, lang, opts.Rate, 0)
	if e.cache != nil {
		if pcm, ok := e.cache.Get(key); ok {
			log.Debug("gtts cache hit", "key", key)
			return pcm, nil
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	mp3, err := e.run(ctx, nil, e.cfg.Binary, e.gttsArgs(text, lang)...)
	if err != nil {
		return nil, e.wrap(ctx, err, "synthesize")
	}
	if len(mp3) == 0 {
		return nil, tts.NewSpeechError(fmt.Errorf("%w: gtts-cli produced no MP3 output", tts.ErrGenerationFailed), tts.EngineGTTS, "synthesize")
	}
	if len(mp3) > maxMP3Size {
		return nil, tts.NewSpeechError(fmt.Errorf("%w: MP3 output too large: %d bytes", tts.ErrGenerationFailed, len(mp3)), tts.EngineGTTS, "synthesize")
	}

	pcm, err := e.run(ctx, mp3, e.cfg.FFmpeg, FFmpegArgs(opts.Rate)...)
	if err != nil {
		return nil, e.wrap(ctx, err, "convert")
	}
	if len(pcm) == 0 {
		return nil, tts.NewSpeechError(fmt.Errorf("%w: ffmpeg produced no PCM output", tts.ErrGenerationFailed), tts.EngineGTTS, "convert")
	}

	if e.cache != nil {
		e.cache.Put(key, pcm)
	}
	return pcm, nil
}

func (e *Engine) wrap(ctx context.Context, err error, action string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, proc.ErrNotFound) {
		return tts.NewSpeechError(fmt.Errorf("%w: %v", tts.ErrEngineNotAvailable, err), tts.EngineGTTS, action)
	}
	return tts.NewSpeechError(fmt.Errorf("%w: %v", tts.ErrGenerationFailed, err), tts.EngineGTTS, action)
}

func (e *Engine) gttsArgs(text, lang string) []string {
	args := []string{text, "-l", lang}
	if e.cfg.Slow {
		args = append(args, "--slow")
	}
	return append(args, "-o", "-")
}

// FFmpegArgs converts MP3 on stdin to mono s16le PCM on stdout. Rates other
// than 1 use the atempo filter, which accepts 0.5 to 2.0.
func FFmpegArgs(speed float64) []string {
	args := []string{
		"-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprint(SampleRate),
		"-ac", "1",
	}
	if speed != 1.0 {
		speed = min(max(speed, 0.5), 2.0)
		args = append(args, "-filter:a", fmt.Sprintf("atempo=%.2f", speed))
	}
	return append(args, "pipe:1")
}

// Voices lists the languages reported by `gtts-cli --all`.
func (e *Engine) Voices(ctx context.Context) ([]tts.Voice, error) {
	out, err := e.run(ctx, nil, e.cfg.Binary, "--all")
	if err != nil {
		return nil, e.wrap(ctx, err, "list voices")
	}
	return ParseLanguages(string(out)), nil
}

// ParseLanguages parses lines of the form "  en: English".
func ParseLanguages(out string) []tts.Voice {
	var voices []tts.Voice
	for _, line := range strings.Split(out, "\n") {
		code, name, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || code == "" {
			continue
		}
		code = strings.TrimSpace(code)
		voices = append(voices, tts.Voice{ID: code, Name: strings.TrimSpace(name), Language: code})
	}
	return voices
}
