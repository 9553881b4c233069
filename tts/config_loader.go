package tts

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads TTS configuration from the "tts" section.
func LoadConfigFromViper(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	cfg := DefaultConfig()

	if v.IsSet("tts.engine") {
		cfg.Engine = v.GetString("tts.engine")
	}
	if v.IsSet("tts.fallback") {
		cfg.Fallback = v.GetString("tts.fallback")
	}
	if v.IsSet("tts.max_failures") {
		cfg.MaxFailures = v.GetInt("tts.max_failures")
	}
	if v.IsSet("tts.timeout") {
		if d, err := time.ParseDuration(v.GetString("tts.timeout")); err == nil {
			cfg.Timeout = d
		}
	}

	if v.IsSet("tts.system.binary") {
		cfg.System.Binary = v.GetString("tts.system.binary")
	}

	if v.IsSet("tts.piper.binary") {
		cfg.Piper.Binary = v.GetString("tts.piper.binary")
	}
	if v.IsSet("tts.piper.model") {
		cfg.Piper.Model = v.GetString("tts.piper.model")
	}
	if v.IsSet("tts.piper.config_path") {
		cfg.Piper.ConfigPath = v.GetString("tts.piper.config_path")
	}
	if v.IsSet("tts.piper.sample_rate") {
		cfg.Piper.SampleRate = v.GetInt("tts.piper.sample_rate")
	}

	if v.IsSet("tts.gtts.binary") {
		cfg.GTTS.Binary = v.GetString("tts.gtts.binary")
	}
	if v.IsSet("tts.gtts.ffmpeg") {
		cfg.GTTS.FFmpeg = v.GetString("tts.gtts.ffmpeg")
	}
	if v.IsSet("tts.gtts.language") {
		cfg.GTTS.Language = v.GetString("tts.gtts.language")
	}
	if v.IsSet("tts.gtts.slow") {
		cfg.GTTS.Slow = v.GetBool("tts.gtts.slow")
	}
	if v.IsSet("tts.gtts.requests_per_minute") {
		cfg.GTTS.RequestsPerMinute = v.GetInt("tts.gtts.requests_per_minute")
	}

	if v.IsSet("tts.cache.enabled") {
		cfg.Cache.Enabled = v.GetBool("tts.cache.enabled")
	}
	if v.IsSet("tts.cache.dir") {
		cfg.Cache.Dir = v.GetString("tts.cache.dir")
	}
	if v.IsSet("tts.cache.memory_mb") {
		cfg.Cache.MemoryMB = v.GetInt("tts.cache.memory_mb")
	}
	if v.IsSet("tts.cache.disk_mb") {
		cfg.Cache.DiskMB = v.GetInt("tts.cache.disk_mb")
	}
	if v.IsSet("tts.cache.level") {
		cfg.Cache.Level = v.GetInt("tts.cache.level")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid TTS configuration: %w", err)
	}
	return cfg, nil
}

// SetDefaults registers the TTS defaults with v.
func SetDefaults(v *viper.Viper) {
	if v == nil {
		v = viper.GetViper()
	}
	d := DefaultConfig()

	v.SetDefault("tts.engine", d.Engine)
	v.SetDefault("tts.fallback", d.Fallback)
	v.SetDefault("tts.max_failures", d.MaxFailures)
	v.SetDefault("tts.timeout", d.Timeout.String())

	v.SetDefault("tts.piper.binary", d.Piper.Binary)
	v.SetDefault("tts.piper.sample_rate", d.Piper.SampleRate)

	v.SetDefault("tts.gtts.binary", d.GTTS.Binary)
	v.SetDefault("tts.gtts.ffmpeg", d.GTTS.FFmpeg)
	v.SetDefault("tts.gtts.language", d.GTTS.Language)
	v.SetDefault("tts.gtts.slow", d.GTTS.Slow)
	v.SetDefault("tts.gtts.requests_per_minute", d.GTTS.RequestsPerMinute)

	v.SetDefault("tts.cache.enabled", d.Cache.Enabled)
	v.SetDefault("tts.cache.memory_mb", d.Cache.MemoryMB)
	v.SetDefault("tts.cache.disk_mb", d.Cache.DiskMB)
	v.SetDefault("tts.cache.level", d.Cache.Level)
}
