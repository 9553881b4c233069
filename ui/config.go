package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	EnableMouse bool

	// Caption and toast lifetimes.
	CaptionTimeout time.Duration `env:"NUDGE_CAPTION_TIMEOUT" envDefault:"30s"`
	ToastTimeout   time.Duration `env:"NUDGE_TOAST_TIMEOUT"   envDefault:"2s"`

	// Delay between completion and the automatic restart.
	AutoRestartDelay time.Duration `env:"NUDGE_AUTO_RESTART_DELAY" envDefault:"2s"`

	GlamourMaxWidth uint   `env:"NUDGE_GLAMOUR_MAX_WIDTH" envDefault:"80"`
	GlamourStyle    string `env:"GLAMOUR_STYLE"`

	// For debugging the UI
	ShowState bool `env:"NUDGE_SHOW_STATE"`
}

// DefaultConfig returns the values used when the environment sets nothing.
func DefaultConfig() Config {
	return Config{
		CaptionTimeout:   30 * time.Second,
		ToastTimeout:     2 * time.Second,
		AutoRestartDelay: 2 * time.Second,
		GlamourMaxWidth:  80,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CaptionTimeout <= 0 {
		c.CaptionTimeout = d.CaptionTimeout
	}
	if c.ToastTimeout <= 0 {
		c.ToastTimeout = d.ToastTimeout
	}
	if c.AutoRestartDelay <= 0 {
		c.AutoRestartDelay = d.AutoRestartDelay
	}
	if c.GlamourMaxWidth == 0 {
		c.GlamourMaxWidth = d.GlamourMaxWidth
	}
	return c
}
