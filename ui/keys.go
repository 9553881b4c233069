package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds every binding the program reacts to. The shortcut group is
// only honored while the keyboardShortcuts setting is on; navigation always
// works.
type keyMap struct {
	// Shortcuts.
	startResume key.Binding
	pause       key.Binding
	stop        key.Binding
	settings    key.Binding
	reset       key.Binding
	testAudio   key.Binding
	alwaysOnTop key.Binding
	clearMsgs   key.Binding

	// Navigation.
	left     key.Binding
	right    key.Binding
	up       key.Binding
	down     key.Binding
	nextTab  key.Binding
	prevTab  key.Binding
	activate key.Binding
	back     key.Binding
	copy     key.Binding
	help     key.Binding
	quit     key.Binding

	// Editor.
	save     key.Binding
	tryOne   key.Binding
	quickAdd key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		startResume: key.NewBinding(
			key.WithKeys("f6", "s"),
			key.WithHelp("F6/s", "start/resume timer"),
		),
		pause: key.NewBinding(
			key.WithKeys("f7", "p"),
			key.WithHelp("F7/p", "pause timer"),
		),
		stop: key.NewBinding(
			key.WithKeys("f8", "x"),
			key.WithHelp("F8/x", "stop timer"),
		),
		settings: key.NewBinding(
			key.WithKeys("f9", ","),
			key.WithHelp("F9/,", "open settings"),
		),
		reset: key.NewBinding(
			key.WithKeys("f10", "r"),
			key.WithHelp("F10/r", "reset timer"),
		),
		testAudio: key.NewBinding(
			key.WithKeys("f11", "t"),
			key.WithHelp("F11/t", "test audio"),
		),
		alwaysOnTop: key.NewBinding(
			key.WithKeys("f12", "a"),
			key.WithHelp("F12/a", "toggle always on top"),
		),
		clearMsgs: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear messages"),
		),
		left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous/decrease"),
		),
		right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next/increase"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		nextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		prevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous tab"),
		),
		activate: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy messages"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		tryOne: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "read a message aloud"),
		),
		quickAdd: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "quick add"),
		),
	}
}

// shortcuts returns the gated bindings in display order.
func (k keyMap) shortcuts() []key.Binding {
	return []key.Binding{
		k.startResume, k.pause, k.stop, k.settings,
		k.reset, k.testAudio, k.alwaysOnTop, k.clearMsgs,
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.startResume, k.pause, k.settings, k.help, k.quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.startResume, k.pause, k.stop, k.reset},
		{k.settings, k.testAudio, k.alwaysOnTop, k.clearMsgs},
		{k.left, k.right, k.activate, k.copy},
		{k.nextTab, k.prevTab, k.back, k.help, k.quit},
	}
}

// editorKeys is the help shown while editing messages.
type editorKeys struct{ k keyMap }

func (e editorKeys) ShortHelp() []key.Binding {
	return []key.Binding{e.k.save, e.k.tryOne, e.k.quickAdd, e.k.back}
}

func (e editorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{e.ShortHelp()}
}

// settingsKeys is the help shown in the settings view.
type settingsKeys struct{ k keyMap }

func (s settingsKeys) ShortHelp() []key.Binding {
	return []key.Binding{s.k.nextTab, s.k.up, s.k.down, s.k.left, s.k.right, s.k.activate, s.k.back}
}

func (s settingsKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{s.ShortHelp()}
}
