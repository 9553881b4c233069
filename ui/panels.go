package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/dgnsrekt/nudge/internal/resources"
	"github.com/dgnsrekt/nudge/internal/settings"
	"github.com/dgnsrekt/nudge/internal/tabs"
	"github.com/dgnsrekt/nudge/tts/engines"
	"github.com/dustin/go-humanize"
)

// newTabs registers a form for every settings tab.
func newTabs(c *commonModel) *tabs.Manager {
	m := tabs.NewManager()
	panels := map[tabs.ID]*form{
		tabs.Timer:     newForm("Timer", "", func() []field { return timerFields(c) }),
		tabs.Audio:     newForm("Audio", "", func() []field { return audioFields(c) }),
		tabs.Shortcuts: newForm("Keyboard Shortcuts", "", func() []field { return shortcutFields(c) }),
		tabs.System:    newForm("System", "", func() []field { return systemFields(c) }),
		tabs.Workout: newForm("Workout",
			"Workout and message-related settings are coming soon.", func() []field { return nil }),
	}
	for _, id := range tabs.IDs() {
		if err := m.Register(id, panels[id]); err != nil {
			log.Error("register tab", "tab", id, "error", err)
		}
	}
	m.OnChange(func(from, to tabs.ID) {
		if to == tabs.Audio {
			c.app.Speech.RefreshVoices()
		}
	})
	return m
}

// intField steps an integer setting, wrapping within [lo, hi].
func intField(c *commonModel, section, label, key string, lo, hi int) field {
	return field{
		section: section,
		label:   label,
		value: func() string {
			v, _ := c.app.Settings.Get().Value(key)
			return fmt.Sprintf("%02d", v)
		},
		adjust: func(delta int) error {
			v, err := c.app.Settings.Get().Value(key)
			if err != nil {
				return err
			}
			n, _ := v.(int)
			span := hi - lo + 1
			n = ((n-lo+delta)%span+span)%span + lo
			return c.app.Settings.Update(key, n)
		},
	}
}

// boolField flips a switch setting.
func boolField(c *commonModel, section, label, key string) field {
	return field{
		section: section,
		label:   label,
		value: func() string {
			v, _ := c.app.Settings.Get().Value(key)
			b, _ := v.(bool)
			return onOff(b)
		},
		adjust: func(int) error {
			_, err := c.app.Settings.Toggle(key)
			return err
		},
	}
}

// floatField steps a float setting by step; the store clamps the result.
func floatField(c *commonModel, section, label, key string, step float64, format func(float64) string) field {
	return field{
		section: section,
		label:   label,
		value: func() string {
			v, _ := c.app.Settings.Get().Value(key)
			f, _ := v.(float64)
			return format(f)
		},
		adjust: func(delta int) error {
			v, err := c.app.Settings.Get().Value(key)
			if err != nil {
				return err
			}
			f, _ := v.(float64)
			return c.app.Settings.Update(key, roundTenth(f+float64(delta)*step))
		},
	}
}

func roundTenth(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func percent(f float64) string {
	return fmt.Sprintf("%d%%", int(f*100+0.5))
}

func multiplier(f float64) string {
	if f > 0.95 && f < 1.05 {
		return "Normal"
	}
	return fmt.Sprintf("%.1fx", f)
}

func action(section, label string, fn func() tea.Cmd) field {
	return field{section: section, label: label, value: func() string { return "↵" }, activate: fn}
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

var themes = []string{settings.ThemeDark, settings.ThemeLight, settings.ThemeAuto}

func timerFields(c *commonModel) []field {
	st := c.app.Settings
	return []field{
		intField(c, "Duration", "Hours", settings.KeyHours, 0, 23),
		intField(c, "", "Minutes", settings.KeyMinutes, 0, 59),
		intField(c, "", "Seconds", settings.KeySeconds, 0, 59),

		boolField(c, "Random mode", "Enable random intervals", settings.KeyRandomMode),
		intField(c, "", "Minimum hours", settings.KeyRandomMinHours, 0, 23),
		intField(c, "", "Minimum minutes", settings.KeyRandomMinMinutes, 0, 59),
		intField(c, "", "Minimum seconds", settings.KeyRandomMinSeconds, 0, 59),
		intField(c, "", "Maximum hours", settings.KeyRandomMaxHours, 0, 23),
		intField(c, "", "Maximum minutes", settings.KeyRandomMaxMinutes, 0, 59),
		intField(c, "", "Maximum seconds", settings.KeyRandomMaxSeconds, 0, 59),

		boolField(c, "Preferences", "Sound notifications", settings.KeySound),
		boolField(c, "", "Auto-restart timer", settings.KeyAutoRestart),
		boolField(c, "", "Desktop notifications", settings.KeyNotifications),
		boolField(c, "", "Always on top", settings.KeyAlwaysOnTop),
		floatField(c, "", "Volume", settings.KeyVolume, 0.05, percent),
		{
			label: "Theme",
			value: func() string { return st.Get().Theme },
			adjust: func(delta int) error {
				i := indexOf(themes, st.Get().Theme)
				i = ((i+delta)%len(themes) + len(themes)) % len(themes)
				return st.Update(settings.KeyTheme, themes[i])
			},
		},

		action("Reset options", "Reset timer", func() tea.Cmd { return send(resetTimerMsg{}) }),
		action("", "Restore default settings", func() tea.Cmd {
			if err := st.Reset(); err != nil {
				return send(errMsg{err})
			}
			return send(statusMsg{text: "Settings restored to defaults"})
		}),
	}
}

func audioFields(c *commonModel) []field {
	st := c.app.Settings
	out := []field{
		{
			section: "Voice settings",
			label:   "Voice",
			value: func() string {
				i := st.Get().SpeechVoice
				if i < 0 || i >= len(c.voices) {
					return "Default"
				}
				return c.voices[i].String()
			},
			adjust: func(delta int) error {
				n := len(c.voices)
				if n == 0 {
					return st.Update(settings.KeySpeechVoice, 0)
				}
				i := ((st.Get().SpeechVoice+delta)%n + n) % n
				return st.Update(settings.KeySpeechVoice, i)
			},
		},
		floatField(c, "", "Speech speed", settings.KeySpeechRate, 0.1, multiplier),
		floatField(c, "", "Speech pitch", settings.KeySpeechPitch, 0.1, multiplier),
		action("", "Test voice", func() tea.Cmd { return send(testVoiceMsg{}) }),

		{
			section: "Message sequence",
			label:   "Number of messages",
			value:   func() string { return fmt.Sprint(st.Get().ClampedAudioCount()) },
			adjust: func(delta int) error {
				n := st.Get().ClampedAudioCount() - 1 + delta
				n = (n%settings.MaxAudioCount+settings.MaxAudioCount)%settings.MaxAudioCount + 1
				return st.Update(settings.KeyAudioCount, n)
			},
		},
		action("", "Test message sequence", func() tea.Cmd { return send(testAudioMsg{}) }),
	}

	for i, cat := range messages.Categories() {
		section := ""
		if i == 0 {
			section = "Message categories"
		}
		out = append(out, field{
			section:  section,
			label:    fmt.Sprintf("%d. %s", int(cat), cat.Short()),
			value:    func() string { return c.app.Catalog.Preview(cat) },
			activate: func() tea.Cmd { return send(editMessagesMsg(cat)) },
			detail:   func(width int) string { return categoryDetail(c, cat, width) },
		})
	}

	out = append(out,
		action("Advanced options", "Open messages folder", func() tea.Cmd {
			dir := c.app.Catalog.Dir()
			return func() tea.Msg {
				if err := resources.OpenFolder(dir); err != nil {
					return errMsg{err}
				}
				return statusMsg{text: "Opened " + dir}
			}
		}),
		action("", "Restore original messages", func() tea.Cmd {
			if err := c.app.Catalog.Restore(c.app.Paths.Archive); err != nil {
				return send(errMsg{fmt.Errorf("restore messages: %w", err)})
			}
			return send(statusMsg{text: "Original messages restored"})
		}),
	)
	return out
}

// categoryDetail describes the selected category: when its file was edited,
// its audio files, and the file itself rendered as markdown.
func categoryDetail(c *commonModel, cat messages.Category, width int) string {
	var b strings.Builder
	note := cat.FileName()
	if mod := c.app.Catalog.ModTime(cat); !mod.IsZero() {
		note += " · edited " + humanize.Time(mod)
	}
	if files, err := c.app.Resources.Pool(cat); err == nil && len(files) > 0 {
		var size int64
		for _, f := range files {
			size += f.Size
		}
		note += fmt.Sprintf(" · %s (%s)",
			humanize.Plural(len(files), "audio file", "audio files"),
			humanize.Bytes(uint64(size))) //nolint:gosec
	}
	b.WriteString(subtleStyle.Render(note))
	b.WriteString("\n")

	msgs := c.app.Catalog.Messages(cat)
	if len(msgs) == 0 {
		return b.String()
	}
	out, err := renderMarkdown(c, messages.Format(cat, msgs), width)
	if err != nil {
		log.Debug("render messages", "category", cat, "error", err)
		return b.String()
	}
	b.WriteString(out)
	return b.String()
}

func shortcutFields(c *commonModel) []field {
	out := []field{
		boolField(c, "", "Keyboard shortcuts", settings.KeyKeyboardShortcuts),
	}
	for i, k := range c.keys.shortcuts() {
		section := ""
		if i == 0 {
			section = "Shortcuts"
		}
		h := k.Help()
		out = append(out, field{
			section: section,
			label:   h.Key,
			value:   func() string { return h.Desc },
		})
	}
	return out
}

func systemFields(c *commonModel) []field {
	a := c.app
	return []field{
		{
			section: "Speech engine",
			label:   "Engine",
			value:   func() string { return a.Engine.Name() },
		},
		{
			label: "Status",
			value: func() string {
				if f, ok := a.Engine.Engine.(*engines.FallbackEngine); ok {
					return f.Status()
				}
				if a.Engine.Available() {
					return "Available"
				}
				return "Not available"
			},
		},
		{
			label: "Cache",
			value: func() string {
				mem, disk, ok := a.Engine.CacheStats()
				if !ok {
					return "Disabled"
				}
				return fmt.Sprintf("%s in memory, %s on disk, %d hits",
					humanize.Bytes(uint64(mem.Size)),  //nolint:gosec
					humanize.Bytes(uint64(disk.Size)), //nolint:gosec
					mem.Hits+disk.Hits)
			},
		},
		{
			section: "Files",
			label:   "Settings",
			value:   func() string { return a.Paths.Settings },
		},
		{
			label: "Messages",
			value: func() string { return a.Paths.Sounds },
		},
		{
			label: "Originals",
			value: func() string { return a.Paths.Archive },
		},
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return 0
}
