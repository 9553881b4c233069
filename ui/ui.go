// Package ui provides the terminal interface for nudge: the countdown view,
// the tabbed settings view and the message editor.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/app"
	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/dgnsrekt/nudge/internal/settings"
	"github.com/dgnsrekt/nudge/internal/speech"
	"github.com/dgnsrekt/nudge/internal/tabs"
	"github.com/dgnsrekt/nudge/internal/timer"
	"github.com/dgnsrekt/nudge/tts"
	"github.com/muesli/reflow/wordwrap"
	te "github.com/muesli/termenv"
	"github.com/spf13/afero"
)

const ellipsis = "…"

// NewProgram returns a new Tea program driving a. sched must be the
// scheduler a's countdown was built with; it is attached to the program.
func NewProgram(cfg Config, a *app.App, sched *Scheduler) *tea.Program {
	log.Debug("Starting nudge", "engine", a.Engine.Name(), "mouse", cfg.EnableMouse)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, a, sched)
	p := tea.NewProgram(m, opts...)
	if sched != nil {
		sched.Attach(p)
	}
	return p
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	sequenceDoneMsg   speech.Result
	spokenMsg         speech.Utterance
	spokeMsg          struct{ err error }
	voicesLoadedMsg   []tts.Voice
	catalogChangedMsg messages.Category
	watchStartedMsg   <-chan messages.Category
	editMessagesMsg   messages.Category
	testVoiceMsg      struct{}
	testAudioMsg      struct{}
	resetTimerMsg     struct{}
	captionTimeoutMsg int
	toastTimeoutMsg   int
	autoRestartMsg    int
	statusMsg         struct {
		text    string
		isError bool
	}
)

// state is the top-level application state.
type state int

const (
	stateTimer state = iota
	stateSettings
	stateEditor
)

func (s state) String() string {
	return map[state]string{
		stateTimer:    "showing timer",
		stateSettings: "showing settings",
		stateEditor:   "editing messages",
	}[s]
}

// Timer view buttons, left to right.
const (
	buttonStart = iota
	buttonPause
	buttonStop
	buttonSettings
	numButtons
)

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	app    *app.App
	keys   keyMap
	sched  *Scheduler
	width  int
	height int

	// Context for speech started from the UI; cancelled on quit.
	ctx    context.Context
	cancel context.CancelFunc

	voices []tts.Voice
}

type model struct {
	common *commonModel
	state  state

	tabs   *tabs.Manager
	editor editorModel

	help     help.Model
	progress progress.Model
	spinner  spinner.Model

	button   int
	speaking bool
	spoken   []string

	caption   string
	captionID int

	toast      string
	toastError bool
	toastID    int

	restartID int

	watch <-chan messages.Category
}

func newModel(cfg Config, a *app.App, sched *Scheduler) model {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	common := &commonModel{
		cfg:    cfg,
		app:    a,
		keys:   newKeyMap(),
		sched:  sched,
		ctx:    ctx,
		cancel: cancel,
	}

	applyTheme(a.Settings.Get().Theme)
	a.Settings.OnChange(settings.KeyTheme, func(_ string, s settings.Settings) {
		applyTheme(s.Theme)
	})
	if sched != nil {
		a.Speech.OnSpoken(func(u speech.Utterance) {
			sched.Post(spokenMsg(u))
		})
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	m := model{
		common:   common,
		state:    stateTimer,
		tabs:     newTabs(common),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:  sp,
	}
	return m
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)
	var cmds []tea.Cmd
	if _, ok := m.common.app.Fs.(*afero.OsFs); ok {
		cmds = append(cmds, watchCatalog(m.common))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	a := m.common.app

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.common.keys.quit) && (m.state != stateEditor || msg.String() == "ctrl+c") {
			m.common.cancel()
			return m, tea.Quit
		}
		if msg.String() == "ctrl+z" {
			return m, tea.Suspend
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.progress.Width = min(max(msg.Width-8, 10), 60)
		m.help.Width = msg.Width
		m.editor.setSize(msg.Width, msg.Height)

	case tickMsg:
		before := a.Timer.State()
		msg.fn()
		after := a.Timer.State()
		if before.Running && !after.Running && after.RemainingSeconds == 0 {
			cmds = append(cmds, m.complete())
		}

	case sequenceDoneMsg:
		res := speech.Result(msg)
		if res.Dropped {
			cmds = append(cmds, m.showToast("Already speaking", false))
			break
		}
		m.speaking = false
		if caption := speech.Caption(res.Messages()); caption != "" {
			cmds = append(cmds, m.setCaption(caption))
		}
		if res.Err != nil && !tts.IsCanceled(res.Err) {
			cmds = append(cmds, m.showToast(res.Err.Error(), true))
		}

	case spokenMsg:
		m.spoken = append(m.spoken, msg.Message)
		m.caption = speech.Caption(m.spoken)

	case spokeMsg:
		if errors.Is(msg.err, speech.ErrBusy) {
			cmds = append(cmds, m.showToast("Already speaking", false))
			break
		}
		m.speaking = false
		if msg.err != nil && !tts.IsCanceled(msg.err) {
			cmds = append(cmds, m.showToast(msg.err.Error(), true))
		}

	case spinner.TickMsg:
		if m.speaking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case captionTimeoutMsg:
		if int(msg) == m.captionID {
			m.caption = ""
			m.spoken = nil
		}

	case toastTimeoutMsg:
		if int(msg) == m.toastID {
			m.toast = ""
			m.toastError = false
		}

	case autoRestartMsg:
		if int(msg) == m.restartID && !a.Timer.State().Running {
			log.Debug("auto restart")
			a.Timer.Reset()
			a.Timer.Start()
		}

	case statusMsg:
		cmds = append(cmds, m.showToast(msg.text, msg.isError))

	case voicesLoadedMsg:
		m.common.voices = msg

	case watchStartedMsg:
		m.watch = msg
		cmds = append(cmds, waitForCatalog(m.watch))

	case catalogChangedMsg:
		log.Debug("catalog reloaded", "category", messages.Category(msg))
		cmds = append(cmds, waitForCatalog(m.watch))

	case editMessagesMsg:
		m.editor = newEditorModel(m.common, messages.Category(msg))
		m.state = stateEditor
		cmds = append(cmds, m.editor.Init())

	case speakRequestMsg:
		cmds = append(cmds, m.speakText(string(msg)))

	case testVoiceMsg:
		cmds = append(cmds, m.speakText("This is how your selected voice sounds."))

	case testAudioMsg:
		cmds = append(cmds, m.playSequence())

	case resetTimerMsg:
		m.restartID++
		a.Timer.Reset()
		cmds = append(cmds, m.showToast("Timer reset", false))

	case errMsg:
		cmds = append(cmds, m.showToast(msg.Error(), true))

	default:
		if m.state == stateEditor {
			var cmd tea.Cmd
			m.editor, cmd = m.editor.update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.common.keys

	if m.state == stateEditor {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.update(msg)
		if m.editor.done {
			m.state = stateSettings
		}
		return m, cmd
	}

	if m.common.app.Settings.Get().KeyboardShortcuts {
		if model, cmd, ok := m.handleShortcut(msg); ok {
			return model, cmd
		}
	}

	if key.Matches(msg, k.help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if key.Matches(msg, k.copy) && m.caption != "" {
		return m, m.copyCaption()
	}

	switch m.state {
	case stateSettings:
		return m.handleSettingsKey(msg)
	default:
		return m.handleTimerKey(msg)
	}
}

// handleShortcut runs a keyboard shortcut. ok is false when msg is not one.
func (m model) handleShortcut(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	k := m.common.keys
	a := m.common.app

	switch {
	case key.Matches(msg, k.startResume):
		return m, m.start(), true
	case key.Matches(msg, k.pause):
		return m, m.pause(), true
	case key.Matches(msg, k.stop):
		return m, m.stop(), true
	case key.Matches(msg, k.settings):
		return m, m.toggleSettings(), true
	case key.Matches(msg, k.reset):
		m.restartID++
		a.Timer.Reset()
		return m, m.showToast("↺ Reset Timer", false), true
	case key.Matches(msg, k.testAudio):
		return m, tea.Batch(m.playSequence(), m.showToast("♪ Test Audio", false)), true
	case key.Matches(msg, k.alwaysOnTop):
		on, err := a.Settings.Toggle(settings.KeyAlwaysOnTop)
		if err != nil {
			return m, m.showToast(err.Error(), true), true
		}
		return m, m.showToast("⇡ Always On Top: "+onOff(on), false), true
	case key.Matches(msg, k.clearMsgs):
		m.clearCaption()
		return m, m.showToast("✓ Clear Messages", false), true
	}
	return m, nil, false
}

func (m model) handleTimerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.common.keys
	switch {
	case key.Matches(msg, k.left):
		m.button = (m.button + numButtons - 1) % numButtons
	case key.Matches(msg, k.right), key.Matches(msg, k.nextTab):
		m.button = (m.button + 1) % numButtons
	case key.Matches(msg, k.prevTab):
		m.button = (m.button + numButtons - 1) % numButtons
	case key.Matches(msg, k.activate):
		switch m.button {
		case buttonStart:
			return m, m.start()
		case buttonPause:
			return m, m.pause()
		case buttonStop:
			return m, m.stop()
		case buttonSettings:
			return m, m.toggleSettings()
		}
	case key.Matches(msg, k.back):
		m.clearCaption()
	}
	return m, nil
}

func (m model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.common.keys
	f := m.activeForm()

	switch {
	case key.Matches(msg, k.back):
		return m, m.toggleSettings()
	case key.Matches(msg, k.nextTab):
		m.tabs.Next()
	case key.Matches(msg, k.prevTab):
		m.tabs.Prev()
	case f == nil:
	case key.Matches(msg, k.up):
		f.move(-1)
	case key.Matches(msg, k.down):
		f.move(1)
	case key.Matches(msg, k.left):
		if err := f.adjust(-1); err != nil {
			return m, m.showToast(err.Error(), true)
		}
	case key.Matches(msg, k.right):
		if err := f.adjust(1); err != nil {
			return m, m.showToast(err.Error(), true)
		}
	case key.Matches(msg, k.activate):
		cmd, err := f.activate()
		if err != nil {
			return m, m.showToast(err.Error(), true)
		}
		return m, cmd
	}
	return m, nil
}

func (m model) activeForm() *form {
	id, ok := m.tabs.Current()
	if !ok {
		return nil
	}
	p, _ := m.tabs.Panel(id)
	f, _ := p.(*form)
	return f
}

func (m *model) start() tea.Cmd {
	m.restartID++
	m.common.app.Timer.Start()
	return m.showToast("▶ Start/Resume Timer", false)
}

func (m *model) pause() tea.Cmd {
	m.common.app.Timer.Pause()
	return m.showToast("⏸ Pause Timer", false)
}

func (m *model) stop() tea.Cmd {
	m.restartID++
	m.common.app.Timer.Stop()
	return m.showToast("⏹ Stop Timer", false)
}

func (m *model) toggleSettings() tea.Cmd {
	if m.state == stateSettings {
		m.tabs.Close()
		m.state = stateTimer
		return nil
	}
	m.tabs.Open()
	m.state = stateSettings
	return loadVoices(m.common)
}

// complete runs the completion side effects and arms the auto restart.
func (m *model) complete() tea.Cmd {
	a := m.common.app
	log.Info("timer complete", "total", a.Timer.State().TotalSeconds)

	cmds := []tea.Cmd{m.startSpeech(a.Complete(m.common.ctx))}
	if a.Settings.Get().AutoRestart {
		m.restartID++
		id := m.restartID
		cmds = append(cmds, tea.Tick(m.common.cfg.AutoRestartDelay, func(time.Time) tea.Msg {
			return autoRestartMsg(id)
		}))
	}
	return tea.Batch(cmds...)
}

func (m *model) playSequence() tea.Cmd {
	return m.startSpeech(m.common.app.Speech.Go(m.common.ctx))
}

func (m *model) startSpeech(ch <-chan speech.Result) tea.Cmd {
	if !m.speaking {
		m.spoken = nil
	}
	m.speaking = true
	return tea.Batch(m.spinner.Tick, waitForSequence(ch))
}

func (m *model) speakText(text string) tea.Cmd {
	m.speaking = true
	seq := m.common.app.Speech
	ctx := m.common.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return spokeMsg{err: seq.SpeakText(ctx, text)}
	})
}

func (m *model) setCaption(s string) tea.Cmd {
	m.caption = s
	m.captionID++
	id := m.captionID
	return tea.Tick(m.common.cfg.CaptionTimeout, func(time.Time) tea.Msg {
		return captionTimeoutMsg(id)
	})
}

func (m *model) clearCaption() {
	m.caption = ""
	m.spoken = nil
	m.captionID++
}

func (m *model) showToast(text string, isError bool) tea.Cmd {
	m.toast = text
	m.toastError = isError
	m.toastID++
	id := m.toastID
	return tea.Tick(m.common.cfg.ToastTimeout, func(time.Time) tea.Msg {
		return toastTimeoutMsg(id)
	})
}

func (m *model) copyCaption() tea.Cmd {
	// Copy using OSC 52
	te.Copy(m.caption)
	// Copy using native system clipboard
	_ = clipboard.WriteAll(m.caption)
	return m.showToast("Copied messages", false)
}

func (m model) View() string {
	var body string
	switch m.state {
	case stateSettings:
		body = m.settingsView()
	case stateEditor:
		body = m.editor.View()
	default:
		body = m.timerView()
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	if m.toast != "" {
		style := toastStyle
		if m.toastError {
			style = toastErrorStyle
		}
		b.WriteString(style.Render(m.toast))
		b.WriteString("\n")
	}
	if m.common.cfg.ShowState {
		b.WriteString(subtleStyle.Render(m.state.String()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) timerView() string {
	a := m.common.app
	st := a.Timer.State()
	width := max(m.common.width, 40)

	clock := clockStyle
	if st.Running {
		clock = runningClockStyle
	}

	status := "Ready"
	switch {
	case st.Running:
		status = "Running"
	case !st.Fresh():
		status = "Paused"
	}
	if s := a.TimerSettings(); s.RandomMode {
		lo, hi := timer.Bounds(s)
		status += fmt.Sprintf(" · random %s–%s", timer.FormatTime(lo), timer.FormatTime(hi))
	}

	lines := []string{
		headingStyle.Render(app.Name),
		clock.Render(timer.FormatTime(st.RemainingSeconds)),
		m.progress.ViewAs(st.Progress()),
		subtleStyle.Render(status),
		"",
	}

	caption := m.caption
	if caption != "" {
		caption = captionStyle.Render(wordwrap.String(caption, max(width-8, 20)))
	}
	if m.speaking {
		caption = m.spinner.View() + " " + caption
	}
	lines = append(lines, caption, "", m.buttonsView(st), "")

	out := lipgloss.JoinVertical(lipgloss.Center, lines...)
	out = lipgloss.PlaceHorizontal(width, lipgloss.Center, out)
	return "\n" + out + "\n" + m.helpView(m.common.keys)
}

func (m model) buttonsView(st timer.TimerState) string {
	labels := [numButtons]string{"Start", "Pause", "Stop", "Settings"}
	if !st.Running && !st.Fresh() {
		labels[buttonStart] = "Resume"
	}
	out := make([]string, 0, numButtons)
	for i, l := range labels {
		style := buttonStyle
		if i == m.button {
			style = activeButtonStyle
		}
		out = append(out, style.Render(l))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m model) settingsView() string {
	width := max(m.common.width-4, 30)

	var tabsLine []string
	for _, id := range m.tabs.Tabs() {
		style := tabStyle
		if m.tabs.IsActive(id) {
			style = activeTabStyle
		}
		tabsLine = append(tabsLine, style.Render(id.Label()))
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Settings"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabsLine...))
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", width)))
	b.WriteString("\n\n")
	b.WriteString(m.tabs.Render(width))
	b.WriteString("\n")
	b.WriteString(m.helpView(settingsKeys{m.common.keys}))
	return "\n" + indent(b.String(), 2)
}

func (m model) helpView(k help.KeyMap) string {
	return m.help.View(k)
}

// COMMANDS

func waitForSequence(ch <-chan speech.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return sequenceDoneMsg(speech.Result{Err: errors.New("speech stopped")})
		}
		return sequenceDoneMsg(res)
	}
}

func loadVoices(c *commonModel) tea.Cmd {
	seq := c.app.Speech
	ctx := c.ctx
	return func() tea.Msg {
		return voicesLoadedMsg(seq.Voices(ctx))
	}
}

func watchCatalog(c *commonModel) tea.Cmd {
	cat := c.app.Catalog
	ctx := c.ctx
	return func() tea.Msg {
		ch, err := cat.Watch(ctx)
		if err != nil {
			log.Warn("Not watching messages", "error", err)
			return nil
		}
		return watchStartedMsg(ch)
	}
}

func waitForCatalog(ch <-chan messages.Category) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cat, ok := <-ch
		if !ok {
			log.Debug("catalog watch finished")
			return nil
		}
		return catalogChangedMsg(cat)
	}
}

// ETC

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
