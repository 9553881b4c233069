// Package app wires the settings store, message catalog, countdown engine,
// speech sequencer and desktop collaborators into one context object that the
// TUI and the CLI commands share.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/audio"
	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/dgnsrekt/nudge/internal/notify"
	"github.com/dgnsrekt/nudge/internal/resources"
	"github.com/dgnsrekt/nudge/internal/settings"
	"github.com/dgnsrekt/nudge/internal/speech"
	"github.com/dgnsrekt/nudge/internal/timer"
	"github.com/dgnsrekt/nudge/internal/window"
	"github.com/dgnsrekt/nudge/tts"
	"github.com/dgnsrekt/nudge/tts/engines"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/afero"
)

// Name is used for data, cache and config directories.
const Name = "nudge"

// Paths locates everything nudge keeps on disk.
type Paths struct {
	Data     string
	Settings string
	Sounds   string
	Archive  string
	Cache    string
}

// DefaultPaths returns the per-user data and cache locations.
func DefaultPaths() (Paths, error) {
	scope := gap.NewScope(gap.User, Name)
	settingsPath, err := scope.DataPath(settings.FileName)
	if err != nil {
		return Paths{}, fmt.Errorf("find data directory: %w", err)
	}
	cacheDir, err := scope.CacheDir()
	if err != nil {
		return Paths{}, fmt.Errorf("find cache directory: %w", err)
	}
	return PathsIn(filepath.Dir(settingsPath), filepath.Join(cacheDir, "speech")), nil
}

// PathsIn lays out the data files under data.
func PathsIn(data, cache string) Paths {
	return Paths{
		Data:     data,
		Settings: filepath.Join(data, settings.FileName),
		Sounds:   filepath.Join(data, "sounds"),
		Archive:  filepath.Join(data, messages.ArchiveDir),
		Cache:    cache,
	}
}

// Overrides replace timer settings for this session only.
type Overrides struct {
	Duration time.Duration
	Random   bool
	Min, Max time.Duration
}

// Apply returns s with the overrides applied.
func (o Overrides) Apply(s settings.Settings) settings.Settings {
	if o.Duration > 0 {
		s.RandomMode = false
		s.Hours, s.Minutes, s.Seconds = split(o.Duration)
	}
	if o.Random {
		s.RandomMode = true
	}
	if o.Min > 0 {
		s.RandomMinHours, s.RandomMinMinutes, s.RandomMinSeconds = split(o.Min)
	}
	if o.Max > 0 {
		s.RandomMaxHours, s.RandomMaxMinutes, s.RandomMaxSeconds = split(o.Max)
	}
	return s
}

func split(d time.Duration) (h, m, s int) {
	total := int(d.Round(time.Second) / time.Second)
	return total / 3600, total % 3600 / 60, total % 60
}

// Options configure New. Zero values pick the real implementations.
type Options struct {
	Fs        afero.Fs
	Paths     Paths
	TTS       tts.Config
	Overrides Overrides
	Scheduler timer.Scheduler
	Sink      audio.Sink
	Notifier  notify.Notifier
	Window    window.Pinner
	Delay     time.Duration
	Sleeper   speech.Sleeper
}

// App is the application context.
type App struct {
	Fs        afero.Fs
	Paths     Paths
	Settings  *settings.Store
	Catalog   *messages.Catalog
	Resources *resources.Store
	Engine    *engines.Handle
	Timer     *timer.Engine
	Speech    *speech.Sequencer
	Notifier  notify.Notifier
	Window    window.Pinner

	overrides Overrides
}

// New loads settings and messages and builds every collaborator. Problems
// with the data files are logged and degrade to defaults.
func New(opts Options) (*App, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewDesktop()
	}
	if opts.Window == nil {
		opts.Window = window.New()
	}
	if opts.Paths.Data == "" {
		p, err := DefaultPaths()
		if err != nil {
			return nil, err
		}
		if opts.Paths.Sounds != "" {
			p.Sounds = opts.Paths.Sounds
		}
		opts.Paths = p
	}
	if opts.TTS.Engine == "" {
		opts.TTS = tts.DefaultConfig()
	}
	if opts.TTS.Cache.Dir == "" {
		opts.TTS.Cache.Dir = opts.Paths.Cache
	}

	a := &App{
		Fs:        opts.Fs,
		Paths:     opts.Paths,
		Settings:  settings.NewStore(opts.Fs, opts.Paths.Settings),
		Catalog:   messages.NewCatalog(opts.Fs, opts.Paths.Sounds),
		Resources: resources.NewStore(opts.Fs, opts.Paths.Sounds),
		Window:    opts.Window,
		overrides: opts.Overrides,
	}

	if err := a.Settings.Load(); err != nil {
		log.Warn("Using default settings", "path", opts.Paths.Settings, "error", err)
	}
	if err := messages.Seed(opts.Fs, opts.Paths.Sounds, opts.Paths.Archive); err != nil {
		log.Warn("Could not write example messages", "error", err)
	}
	a.Catalog.Load()

	handle, err := engines.New(opts.TTS, engines.Deps{Fs: opts.Fs, Sink: opts.Sink})
	if err != nil {
		return nil, err
	}
	a.Engine = handle

	a.Notifier = notify.Gated{
		Notifier: opts.Notifier,
		Enabled:  func() bool { return a.Settings.Get().Notifications },
	}

	a.Timer = timer.NewEngine(timer.NewResolver(a.TimerSettings), opts.Scheduler)

	seqOpts := []speech.Option{}
	if opts.Delay > 0 {
		seqOpts = append(seqOpts, speech.WithDelay(opts.Delay))
	}
	if opts.Sleeper != nil {
		seqOpts = append(seqOpts, speech.WithSleeper(opts.Sleeper))
	}
	a.Speech = speech.New(handle, a.Catalog, a.Settings.Get, seqOpts...)

	a.Settings.OnChange(settings.KeyAlwaysOnTop, func(_ string, s settings.Settings) {
		go a.pin(s.AlwaysOnTop)
	})
	if a.Settings.Get().AlwaysOnTop {
		go a.pin(true)
	}
	return a, nil
}

func (a *App) pin(on bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Window.SetAlwaysOnTop(ctx, on); err != nil {
		if errors.Is(err, window.ErrUnsupported) {
			log.Debug("always on top unavailable", "error", err)
			return
		}
		log.Warn("Could not change always on top", "error", err)
	}
}

// TimerSettings returns the stored settings with session overrides applied.
func (a *App) TimerSettings() settings.Settings {
	return a.overrides.Apply(a.Settings.Get())
}

// Complete runs the completion side effects: a desktop notification and the
// speech sequence. The sequence runs on its own goroutine; its result
// arrives on the returned channel.
func (a *App) Complete(ctx context.Context) <-chan speech.Result {
	go notify.Complete(ctx, a.Notifier)
	return a.Speech.Go(ctx)
}

// Close releases the speech cache.
func (a *App) Close() error {
	if a.Engine == nil {
		return nil
	}
	return a.Engine.Close()
}
