package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/nudge/internal/app"
	"github.com/dgnsrekt/nudge/internal/audio"
	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/dgnsrekt/nudge/internal/settings"
	"github.com/dgnsrekt/nudge/internal/speech"
	"github.com/dgnsrekt/nudge/internal/tabs"
	"github.com/dgnsrekt/nudge/internal/timer"
	"github.com/dgnsrekt/nudge/tts"
	"github.com/dgnsrekt/nudge/tts/engines/mock"
	"github.com/spf13/afero"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) error { return nil }

type fakeWindow struct {
	mu sync.Mutex
	on []bool
}

func (f *fakeWindow) SetAlwaysOnTop(_ context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = append(f.on, on)
	return nil
}

func key(s string) tea.Msg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "f6":
		return tea.KeyMsg{Type: tea.KeyF6}
	case "f8":
		return tea.KeyMsg{Type: tea.KeyF8}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func testConfig() Config {
	return Config{
		CaptionTimeout:   time.Millisecond,
		ToastTimeout:     time.Millisecond,
		AutoRestartDelay: time.Millisecond,
		GlamourMaxWidth:  80,
		GlamourStyle:     "notty",
	}
}

func newTestModel(t *testing.T, o app.Overrides) model {
	t.Helper()
	cfg := tts.DefaultConfig()
	cfg.Engine = tts.EngineMock
	cfg.Fallback = ""
	cfg.Cache.Enabled = false

	a, err := app.New(app.Options{
		Fs:        afero.NewMemMapFs(),
		Paths:     app.PathsIn("/data", "/cache"),
		TTS:       cfg,
		Overrides: o,
		Scheduler: timer.NewManualScheduler(),
		Sink:      audio.NewMockPlayer(),
		Notifier:  nopNotifier{},
		Window:    &fakeWindow{},
		Sleeper:   func(context.Context, time.Duration) error { return nil },
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	m := newModel(testConfig(), a, nil)
	res, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return res.(model)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	res, cmd := m.Update(msg)
	out, ok := res.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", res)
	}
	return out, cmd
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		m, _ = update(t, m, key(k))
	}
	return m
}

// collect runs cmd and any batched commands it returns.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestTimerShortcuts(t *testing.T) {
	m := newTestModel(t, app.Overrides{Duration: 90 * time.Second})
	a := m.common.app

	m = press(t, m, "s")
	if !a.Timer.State().Running {
		t.Fatal("timer not running after start shortcut")
	}
	if !strings.Contains(m.toast, "Start") {
		t.Errorf("toast = %q, want start feedback", m.toast)
	}

	m, _ = update(t, m, tickMsg{fn: a.Timer.Tick})
	m = press(t, m, "p")
	st := a.Timer.State()
	if st.Running || st.RemainingSeconds != 89 {
		t.Errorf("after pause state = %+v, want stopped at 89", st)
	}

	m = press(t, m, "x")
	if st := a.Timer.State(); st.RemainingSeconds != 90 {
		t.Errorf("after stop remaining = %d, want 90", st.RemainingSeconds)
	}

	m = press(t, m, "f6")
	if !a.Timer.State().Running {
		t.Error("F6 did not start the timer")
	}
	_ = press(t, m, "f8")
	if a.Timer.State().Running {
		t.Error("F8 did not stop the timer")
	}
}

func TestShortcutsDisabled(t *testing.T) {
	m := newTestModel(t, app.Overrides{Duration: time.Minute})
	a := m.common.app
	if err := a.Settings.Update(settings.KeyKeyboardShortcuts, false); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, "s")
	if a.Timer.State().Running {
		t.Fatal("shortcut started the timer while shortcuts are disabled")
	}

	// The buttons still work.
	m = press(t, m, "enter")
	if !a.Timer.State().Running {
		t.Error("start button did not start the timer")
	}
	m = press(t, m, "right", "enter")
	if a.Timer.State().Running {
		t.Error("pause button did not pause the timer")
	}
	if m.button != buttonPause {
		t.Errorf("button = %d, want %d", m.button, buttonPause)
	}
}

func TestCompletionSpeaksAndShowsCaption(t *testing.T) {
	m := newTestModel(t, app.Overrides{Duration: time.Second})
	a := m.common.app
	eng := a.Engine.Engine.(*mock.Engine)

	m = press(t, m, "s")
	m, cmd := update(t, m, tickMsg{fn: a.Timer.Tick})
	if !m.speaking {
		t.Fatal("not speaking after the countdown reached zero")
	}

	var done *sequenceDoneMsg
	for _, msg := range collect(cmd) {
		if d, ok := msg.(sequenceDoneMsg); ok {
			done = &d
		}
	}
	if done == nil {
		t.Fatal("no sequence result")
	}
	if got := len(done.Spoken); got != 3 {
		t.Errorf("spoken = %d messages, want 3", got)
	}

	m, cmd = update(t, m, *done)
	if m.speaking {
		t.Error("still speaking after the sequence finished")
	}
	want := speech.Caption(speech.Result(*done).Messages())
	if m.caption != want || want == "" {
		t.Errorf("caption = %q, want %q", m.caption, want)
	}
	if len(eng.Spoken()) != 3 {
		t.Errorf("engine spoke %d times, want 3", len(eng.Spoken()))
	}

	for _, msg := range collect(cmd) {
		m, _ = update(t, m, msg)
	}
	if m.caption != "" {
		t.Errorf("caption = %q after timeout, want empty", m.caption)
	}
}

func TestAutoRestart(t *testing.T) {
	m := newTestModel(t, app.Overrides{Duration: time.Second})
	a := m.common.app
	if err := a.Settings.Update(settings.KeyAutoRestart, true); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, "s")
	m, _ = update(t, m, tickMsg{fn: a.Timer.Tick})
	if a.Timer.State().Running {
		t.Fatal("timer still running at zero")
	}

	// A stale restart is ignored.
	m, _ = update(t, m, autoRestartMsg(m.restartID-1))
	if a.Timer.State().Running {
		t.Error("stale auto restart started the timer")
	}

	_, _ = update(t, m, autoRestartMsg(m.restartID))
	st := a.Timer.State()
	if !st.Running || st.RemainingSeconds != 1 {
		t.Errorf("after auto restart state = %+v, want running with 1s", st)
	}
}

func TestCaptionTimeout(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	m.setCaption("first")
	old := m.captionID
	m.setCaption("second")

	m, _ = update(t, m, captionTimeoutMsg(old))
	if m.caption != "second" {
		t.Errorf("caption = %q, want %q", m.caption, "second")
	}
	m, _ = update(t, m, captionTimeoutMsg(m.captionID))
	if m.caption != "" {
		t.Errorf("caption = %q, want empty", m.caption)
	}
}

func TestClearMessagesShortcut(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	m.setCaption("Time to check in! Get back to work!")
	m = press(t, m, "c")
	if m.caption != "" {
		t.Errorf("caption = %q, want empty", m.caption)
	}
}

func TestSpokenMessagesBuildCaption(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	for _, s := range []string{"One", "Two", "Three"} {
		m, _ = update(t, m, spokenMsg(speech.Utterance{Message: s}))
	}
	if want := "One Two, Three"; m.caption != want {
		t.Errorf("caption = %q, want %q", m.caption, want)
	}
}

func TestSettingsNavigation(t *testing.T) {
	m := newTestModel(t, app.Overrides{})

	m = press(t, m, ",")
	if m.state != stateSettings {
		t.Fatalf("state = %v, want %v", m.state, stateSettings)
	}
	if id, _ := m.tabs.Current(); id != tabs.Timer {
		t.Errorf("tab = %q, want %q", id, tabs.Timer)
	}

	m = press(t, m, "tab")
	if id, _ := m.tabs.Current(); id != tabs.Audio {
		t.Errorf("tab = %q, want %q", id, tabs.Audio)
	}
	m = press(t, m, "shift+tab", "shift+tab")
	if id, _ := m.tabs.Current(); id != tabs.Workout {
		t.Errorf("tab = %q, want %q", id, tabs.Workout)
	}
	if !strings.Contains(m.View(), "coming soon") {
		t.Error("workout tab does not render its placeholder")
	}

	m = press(t, m, "esc")
	if m.state != stateTimer {
		t.Errorf("state = %v, want %v", m.state, stateTimer)
	}
	if _, ok := m.tabs.Current(); ok {
		t.Error("a tab is still active after closing settings")
	}
}

func TestTimerFormAdjusts(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	st := m.common.app.Settings

	m = press(t, m, ",", "right")
	if got := st.Get().Hours; got != 1 {
		t.Errorf("hours = %d, want 1", got)
	}
	m = press(t, m, "left", "left")
	if got := st.Get().Hours; got != 23 {
		t.Errorf("hours = %d, want 23 after wrapping", got)
	}

	m = press(t, m, "down", "left")
	if got := st.Get().Minutes; got != 9 {
		t.Errorf("minutes = %d, want 9", got)
	}

	// Random mode is a switch; enter toggles it.
	m = press(t, m, "down", "down", "enter")
	if !st.Get().RandomMode {
		t.Error("random mode not enabled")
	}
	if !strings.Contains(m.View(), "Enable random intervals") {
		t.Error("timer tab does not render its fields")
	}
}

func TestAlwaysOnTopShortcut(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	m = press(t, m, "a")
	if !m.common.app.Settings.Get().AlwaysOnTop {
		t.Error("always on top not enabled")
	}
	_ = press(t, m, "a")
	if m.common.app.Settings.Get().AlwaysOnTop {
		t.Error("always on top not disabled")
	}
}

func TestEditorSave(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	m = press(t, m, ",")

	m, _ = update(t, m, editMessagesMsg(messages.Motivation))
	if m.state != stateEditor {
		t.Fatalf("state = %v, want %v", m.state, stateEditor)
	}
	if !strings.Contains(m.View(), "Edit Motivation Messages") {
		t.Error("editor heading missing")
	}

	// Typing q does not quit while editing.
	m, cmd := update(t, m, key("q"))
	for _, msg := range collect(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			t.Fatal("q quit the editor")
		}
	}

	m.editor.textarea.SetValue("Stay focused\n\n  Ship it  \n")
	if n, _ := m.editor.stats(); n != 2 {
		t.Errorf("stats messages = %d, want 2", n)
	}

	m, cmd = update(t, m, key("ctrl+s"))
	if m.state != stateSettings {
		t.Errorf("state = %v, want %v", m.state, stateSettings)
	}
	got := m.common.app.Catalog.Messages(messages.Motivation)
	if len(got) != 2 || got[0] != "Stay focused" || got[1] != "Ship it" {
		t.Errorf("saved messages = %q", got)
	}
	for _, msg := range collect(cmd) {
		m, _ = update(t, m, msg)
	}
	if !strings.Contains(m.toast, "Saved 2 messages") {
		t.Errorf("toast = %q", m.toast)
	}
}

func TestEditorRejectsEmpty(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	before := m.common.app.Catalog.Messages(messages.CheckIn)

	m, _ = update(t, m, editMessagesMsg(messages.CheckIn))
	m.editor.textarea.SetValue("   \n")
	m, cmd := update(t, m, key("ctrl+s"))
	if m.state != stateEditor {
		t.Errorf("state = %v, want %v", m.state, stateEditor)
	}

	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v, want one status", msgs)
	}
	if s, ok := msgs[0].(statusMsg); !ok || !s.isError {
		t.Errorf("msg = %#v, want an error status", msgs[0])
	}
	if got := m.common.app.Catalog.Messages(messages.CheckIn); len(got) != len(before) {
		t.Errorf("messages changed to %q", got)
	}
}

func TestEditorQuickAdd(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	cat := messages.Encouragement
	before := len(m.common.app.Catalog.Messages(cat))

	m, _ = update(t, m, editMessagesMsg(cat))
	m = press(t, m, "ctrl+o")
	if !m.editor.adding {
		t.Fatal("quick add not open")
	}
	m = press(t, m, "tab")
	if got, want := m.editor.quick.Value(), cat.Examples()[0]; got != want {
		t.Errorf("quick add value = %q, want %q", got, want)
	}

	m = press(t, m, "enter")
	if m.editor.adding {
		t.Error("quick add still open")
	}
	got := m.common.app.Catalog.Messages(cat)
	if len(got) != before+1 || got[len(got)-1] != cat.Examples()[0] {
		t.Errorf("messages = %q, want example appended", got)
	}
	if !strings.HasSuffix(m.editor.textarea.Value(), cat.Examples()[0]) {
		t.Errorf("editor text = %q, want example appended", m.editor.textarea.Value())
	}
}

func TestEditorTestMessage(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	m, _ = update(t, m, editMessagesMsg(messages.CheckIn))
	m.editor.textarea.SetValue("Only one")

	m, cmd := update(t, m, key("ctrl+r"))
	msgs := collect(cmd)
	if len(msgs) != 1 || msgs[0] != speakRequestMsg("Only one") {
		t.Fatalf("messages = %#v, want a speak request", msgs)
	}

	m, cmd = update(t, m, msgs[0])
	if !m.speaking {
		t.Error("not speaking")
	}
	for _, msg := range collect(cmd) {
		if s, ok := msg.(spokeMsg); ok && s.err != nil {
			t.Errorf("speak error = %v", s.err)
		}
	}
	eng := m.common.app.Engine.Engine.(*mock.Engine)
	if got := eng.Spoken(); len(got) != 1 || got[0] != "Only one" {
		t.Errorf("spoken = %q", got)
	}
}

func TestSpeakRequestWhileSequencePlaying(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	m.speaking = true

	m, _ = update(t, m, spokeMsg{err: speech.ErrBusy})
	if !m.speaking {
		t.Error("busy reply cleared the running sequence's spinner")
	}
	if m.toast != "Already speaking" {
		t.Errorf("toast = %q, want %q", m.toast, "Already speaking")
	}
}

func TestToastTimeout(t *testing.T) {
	m := newTestModel(t, app.Overrides{})
	cmd := m.showToast("hello", false)
	m, _ = update(t, m, toastTimeoutMsg(m.toastID-1))
	if m.toast != "hello" {
		t.Errorf("toast = %q, want %q", m.toast, "hello")
	}
	for _, msg := range collect(cmd) {
		m, _ = update(t, m, msg)
	}
	if m.toast != "" {
		t.Errorf("toast = %q, want empty", m.toast)
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := NewScheduler()
	stop := s.Every(time.Hour, func() {})
	stop()
	stop()
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c != DefaultConfig() {
		t.Errorf("withDefaults() = %+v, want %+v", c, DefaultConfig())
	}
}
