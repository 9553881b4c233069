package tts

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Engine names accepted in configuration.
const (
	EngineAuto   = "auto"
	EngineSystem = "system"
	EnginePiper  = "piper"
	EngineGTTS   = "gtts"
	EngineMock   = "mock"
	EngineNone   = "none"
)

// Engines lists the accepted engine names.
func Engines() []string {
	return []string{EngineAuto, EngineSystem, EnginePiper, EngineGTTS, EngineMock, EngineNone}
}

// Config contains all TTS configuration options.
type Config struct {
	Engine      string        `yaml:"engine"`
	Fallback    string        `yaml:"fallback"`
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`

	System SystemConfig `yaml:"system"`
	Piper  PiperConfig  `yaml:"piper"`
	GTTS   GTTSConfig   `yaml:"gtts"`
	Cache  CacheConfig  `yaml:"cache"`
}

// SystemConfig configures the platform speech command.
type SystemConfig struct {
	// Binary overrides the detected command (espeak-ng, espeak, say).
	Binary string `yaml:"binary"`
}

// PiperConfig contains Piper TTS engine specific settings.
type PiperConfig struct {
	Binary     string `yaml:"binary"`
	Model      string `yaml:"model"`
	ConfigPath string `yaml:"config_path"`
	SampleRate int    `yaml:"sample_rate"`
}

// GTTSConfig contains gTTS engine specific settings.
type GTTSConfig struct {
	Binary            string `yaml:"binary"`
	FFmpeg            string `yaml:"ffmpeg"`
	Language          string `yaml:"language"`
	Slow              bool   `yaml:"slow"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// CacheConfig sizes the synthesized-audio cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	MemoryMB int    `yaml:"memory_mb"`
	DiskMB   int    `yaml:"disk_mb"`
	Level    int    `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:      EngineAuto,
		Fallback:    EngineSystem,
		MaxFailures: 3,
		Timeout:     30 * time.Second,
		System:      SystemConfig{},
		Piper: PiperConfig{
			Binary:     "piper",
			SampleRate: 22050,
		},
		GTTS: GTTSConfig{
			Binary:            "gtts-cli",
			FFmpeg:            "ffmpeg",
			Language:          "en",
			RequestsPerMinute: 50,
		},
		Cache: CacheConfig{
			Enabled:  true,
			MemoryMB: 16,
			DiskMB:   128,
			Level:    3,
		},
	}
}

// Validate checks the configuration and normalizes engine names.
func (c *Config) Validate() error {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if !slices.Contains(Engines(), c.Engine) {
		return fmt.Errorf("%w: engine %q must be one of %v", ErrInvalidConfig, c.Engine, Engines())
	}
	c.Fallback = strings.ToLower(strings.TrimSpace(c.Fallback))
	if c.Fallback != "" && !slices.Contains(Engines(), c.Fallback) {
		return fmt.Errorf("%w: fallback %q must be one of %v", ErrInvalidConfig, c.Fallback, Engines())
	}
	if c.MaxFailures < 1 {
		return fmt.Errorf("%w: max_failures must be at least 1, got %d", ErrInvalidConfig, c.MaxFailures)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("%w: timeout must be at least 1 second, got %v", ErrInvalidConfig, c.Timeout)
	}
	if c.Piper.SampleRate <= 0 {
		return fmt.Errorf("%w: piper sample_rate must be positive", ErrInvalidConfig)
	}
	if c.GTTS.RequestsPerMinute < 1 {
		return fmt.Errorf("%w: gtts requests_per_minute must be at least 1", ErrInvalidConfig)
	}
	if c.Cache.MemoryMB < 0 || c.Cache.DiskMB < 0 {
		return fmt.Errorf("%w: cache sizes must not be negative", ErrInvalidConfig)
	}
	if c.Cache.Level < 1 || c.Cache.Level > 22 {
		return fmt.Errorf("%w: cache level must be between 1 and 22, got %d", ErrInvalidConfig, c.Cache.Level)
	}
	return nil
}
