// Package settings holds the user-editable timer, speech and app preferences
// and persists them as a flat JSON object.
package settings

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// StorageKey is the key the settings object is stored under.
const StorageKey = "intervalTimerSettings"

// Setting keys. These double as the JSON field names.
const (
	KeyHours             = "hours"
	KeyMinutes           = "minutes"
	KeySeconds           = "seconds"
	KeyRandomMode        = "randomMode"
	KeyRandomMinHours    = "randomMinHours"
	KeyRandomMinMinutes  = "randomMinMinutes"
	KeyRandomMinSeconds  = "randomMinSeconds"
	KeyRandomMaxHours    = "randomMaxHours"
	KeyRandomMaxMinutes  = "randomMaxMinutes"
	KeyRandomMaxSeconds  = "randomMaxSeconds"
	KeySound             = "sound"
	KeyAudioCount        = "audioCount"
	KeyVolume            = "volume"
	KeyTheme             = "theme"
	KeyAlwaysOnTop       = "alwaysOnTop"
	KeyNotifications     = "notifications"
	KeyAutoRestart       = "autoRestart"
	KeySpeechRate        = "speechRate"
	KeySpeechPitch       = "speechPitch"
	KeySpeechVoice       = "speechVoice"
	KeyKeyboardShortcuts = "keyboardShortcuts"
)

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// Bounds applied on update.
const (
	MinAudioCount  = 1
	MaxAudioCount  = 4
	MinSpeechRate  = 0.1
	MaxSpeechRate  = 3.0
	MinSpeechPitch = 0.0
	MaxSpeechPitch = 2.0
)

var (
	// ErrUnknownKey is returned when updating a key that is not a setting.
	ErrUnknownKey = errors.New("unknown setting")
	// ErrInvalidValue is returned when a value cannot be coerced to the
	// setting's type.
	ErrInvalidValue = errors.New("invalid setting value")
)

// Settings is the flat preference object.
type Settings struct {
	// Fixed duration.
	Hours   int `json:"hours"   yaml:"hours"`
	Minutes int `json:"minutes" yaml:"minutes"`
	Seconds int `json:"seconds" yaml:"seconds"`

	// Random duration bounds.
	RandomMode       bool `json:"randomMode"       yaml:"random_mode"`
	RandomMinHours   int  `json:"randomMinHours"   yaml:"random_min_hours"`
	RandomMinMinutes int  `json:"randomMinMinutes" yaml:"random_min_minutes"`
	RandomMinSeconds int  `json:"randomMinSeconds" yaml:"random_min_seconds"`
	RandomMaxHours   int  `json:"randomMaxHours"   yaml:"random_max_hours"`
	RandomMaxMinutes int  `json:"randomMaxMinutes" yaml:"random_max_minutes"`
	RandomMaxSeconds int  `json:"randomMaxSeconds" yaml:"random_max_seconds"`

	// Audio.
	Sound      bool    `json:"sound"      yaml:"sound"`
	AudioCount int     `json:"audioCount" yaml:"audio_count"`
	Volume     float64 `json:"volume"     yaml:"volume"`

	// App.
	Theme             string `json:"theme"             yaml:"theme"`
	AlwaysOnTop       bool   `json:"alwaysOnTop"       yaml:"always_on_top"`
	Notifications     bool   `json:"notifications"     yaml:"notifications"`
	AutoRestart       bool   `json:"autoRestart"       yaml:"auto_restart"`
	KeyboardShortcuts bool   `json:"keyboardShortcuts" yaml:"keyboard_shortcuts"`

	// Speech.
	SpeechRate  float64 `json:"speechRate"  yaml:"speech_rate"`
	SpeechPitch float64 `json:"speechPitch" yaml:"speech_pitch"`
	SpeechVoice int     `json:"speechVoice" yaml:"speech_voice"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() Settings {
	return Settings{
		Minutes:           10,
		RandomMinMinutes:  5,
		RandomMaxMinutes:  15,
		Sound:             true,
		AudioCount:        3,
		Volume:            1.0,
		Theme:             ThemeDark,
		Notifications:     true,
		KeyboardShortcuts: true,
		SpeechRate:        1.0,
		SpeechPitch:       1.0,
	}
}

// Keys returns every setting key in display order.
func Keys() []string {
	return []string{
		KeyHours, KeyMinutes, KeySeconds,
		KeyRandomMode,
		KeyRandomMinHours, KeyRandomMinMinutes, KeyRandomMinSeconds,
		KeyRandomMaxHours, KeyRandomMaxMinutes, KeyRandomMaxSeconds,
		KeySound, KeyAudioCount, KeyVolume,
		KeyTheme, KeyAlwaysOnTop, KeyNotifications, KeyAutoRestart,
		KeySpeechRate, KeySpeechPitch, KeySpeechVoice,
		KeyKeyboardShortcuts,
	}
}

// ClampedAudioCount returns AudioCount limited to [1,4].
func (s Settings) ClampedAudioCount() int {
	return clampInt(s.AudioCount, MinAudioCount, MaxAudioCount)
}

// Value returns the current value of a setting by key.
func (s Settings) Value(key string) (any, error) {
	switch key {
	case KeyHours:
		return s.Hours, nil
	case KeyMinutes:
		return s.Minutes, nil
	case KeySeconds:
		return s.Seconds, nil
	case KeyRandomMode:
		return s.RandomMode, nil
	case KeyRandomMinHours:
		return s.RandomMinHours, nil
	case KeyRandomMinMinutes:
		return s.RandomMinMinutes, nil
	case KeyRandomMinSeconds:
		return s.RandomMinSeconds, nil
	case KeyRandomMaxHours:
		return s.RandomMaxHours, nil
	case KeyRandomMaxMinutes:
		return s.RandomMaxMinutes, nil
	case KeyRandomMaxSeconds:
		return s.RandomMaxSeconds, nil
	case KeySound:
		return s.Sound, nil
	case KeyAudioCount:
		return s.AudioCount, nil
	case KeyVolume:
		return s.Volume, nil
	case KeyTheme:
		return s.Theme, nil
	case KeyAlwaysOnTop:
		return s.AlwaysOnTop, nil
	case KeyNotifications:
		return s.Notifications, nil
	case KeyAutoRestart:
		return s.AutoRestart, nil
	case KeySpeechRate:
		return s.SpeechRate, nil
	case KeySpeechPitch:
		return s.SpeechPitch, nil
	case KeySpeechVoice:
		return s.SpeechVoice, nil
	case KeyKeyboardShortcuts:
		return s.KeyboardShortcuts, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// set coerces value and assigns it to the field named by key.
func (s *Settings) set(key string, value any) error {
	switch key {
	case KeyHours, KeyMinutes, KeySeconds,
		KeyRandomMinHours, KeyRandomMinMinutes, KeyRandomMinSeconds,
		KeyRandomMaxHours, KeyRandomMaxMinutes, KeyRandomMaxSeconds:
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*s.durationField(key) = max(n, 0)
	case KeyAudioCount:
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.AudioCount = clampInt(n, MinAudioCount, MaxAudioCount)
	case KeySpeechVoice:
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.SpeechVoice = max(n, 0)
	case KeyVolume:
		f, err := toFloat(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.Volume = clampFloat(f, 0, 1)
	case KeySpeechRate:
		f, err := toFloat(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.SpeechRate = clampFloat(f, MinSpeechRate, MaxSpeechRate)
	case KeySpeechPitch:
		f, err := toFloat(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.SpeechPitch = clampFloat(f, MinSpeechPitch, MaxSpeechPitch)
	case KeyRandomMode, KeySound, KeyAlwaysOnTop, KeyNotifications,
		KeyAutoRestart, KeyKeyboardShortcuts:
		b, err := toBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*s.boolField(key) = b
	case KeyTheme:
		t, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: %w: %v", key, ErrInvalidValue, value)
		}
		t = strings.ToLower(strings.TrimSpace(t))
		switch t {
		case ThemeDark, ThemeLight, ThemeAuto:
			s.Theme = t
		default:
			return fmt.Errorf("%s: %w: %q", key, ErrInvalidValue, t)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

func (s *Settings) durationField(key string) *int {
	switch key {
	case KeyHours:
		return &s.Hours
	case KeyMinutes:
		return &s.Minutes
	case KeySeconds:
		return &s.Seconds
	case KeyRandomMinHours:
		return &s.RandomMinHours
	case KeyRandomMinMinutes:
		return &s.RandomMinMinutes
	case KeyRandomMinSeconds:
		return &s.RandomMinSeconds
	case KeyRandomMaxHours:
		return &s.RandomMaxHours
	case KeyRandomMaxMinutes:
		return &s.RandomMaxMinutes
	default:
		return &s.RandomMaxSeconds
	}
}

func (s *Settings) boolField(key string) *bool {
	switch key {
	case KeyRandomMode:
		return &s.RandomMode
	case KeySound:
		return &s.Sound
	case KeyAlwaysOnTop:
		return &s.AlwaysOnTop
	case KeyNotifications:
		return &s.Notifications
	case KeyAutoRestart:
		return &s.AutoRestart
	default:
		return &s.KeyboardShortcuts
	}
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// toFloat accepts numbers and numeric strings. NaN and the infinities are
// rejected since they cannot be persisted.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil, bool:
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, v)
	case string:
		v = strings.TrimSpace(n)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, fmt.Sprint(v))
	}
	return f, nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, fmt.Errorf("%w: %v", ErrInvalidValue, v)
	case string:
		v = strings.TrimSpace(b)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidValue, fmt.Sprint(v))
	}
	return b, nil
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
