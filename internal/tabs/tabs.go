// Package tabs switches between the panels of the settings view. Exactly one
// panel is active once the view has been opened.
package tabs

import (
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ID names a settings tab.
type ID string

// The settings tabs.
const (
	Timer     ID = "timer"
	Audio     ID = "audio"
	Shortcuts ID = "shortcuts"
	System    ID = "system"
	Workout   ID = "workout"
)

// Default is the tab shown when the settings view opens.
const Default = Timer

// ErrUnknownTab is returned when registering an id outside the known set.
var ErrUnknownTab = errors.New("unknown tab")

// IDs returns every tab in navigation order.
func IDs() []ID {
	return []ID{Timer, Audio, Shortcuts, System, Workout}
}

// Valid reports whether id is one of the known tabs.
func (id ID) Valid() bool {
	return slices.Contains(IDs(), id)
}

var title = cases.Title(language.English)

// Label is the tab's navigation label.
func (id ID) Label() string {
	return title.String(string(id))
}

// Panel is the content of one tab.
type Panel interface {
	Render(width int) string
	// Dispose releases whatever the panel holds while active.
	Dispose()
}

// Activator is implemented by panels that need to refresh when shown.
type Activator interface {
	Activate()
}

// Manager tracks the registered panels and which one is active. It is not
// safe for concurrent use; it lives on the UI goroutine.
type Manager struct {
	order  []ID
	panels map[ID]Panel
	active ID

	onChange func(from, to ID)
}

// NewManager returns a Manager with no tabs and none active.
func NewManager() *Manager {
	return &Manager{panels: make(map[ID]Panel)}
}

// Register adds panel under id. Registering an id again replaces its panel.
func (m *Manager) Register(id ID, p Panel) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTab, id)
	}
	if _, ok := m.panels[id]; !ok {
		m.order = append(m.order, id)
	}
	m.panels[id] = p
	return nil
}

// OnChange registers fn to run after the active tab changes.
func (m *Manager) OnChange(fn func(from, to ID)) {
	m.onChange = fn
}

// ShowTab deactivates the current panel and activates id. An unregistered
// id logs a warning and changes nothing.
func (m *Manager) ShowTab(id ID) bool {
	p, ok := m.panels[id]
	if !ok {
		log.Warn("Tab not registered", "tab", id)
		return false
	}

	from := m.active
	if from == id {
		return true
	}
	if prev, ok := m.panels[from]; ok {
		prev.Dispose()
	}
	m.active = id
	if a, ok := p.(Activator); ok {
		a.Activate()
	}
	log.Debug("switched tab", "from", from, "to", id)

	if m.onChange != nil {
		m.onChange(from, id)
	}
	return true
}

// Open is called when the settings view opens and shows the default tab.
func (m *Manager) Open() {
	m.ShowTab(Default)
}

// Close disposes the active panel and leaves no tab active.
func (m *Manager) Close() {
	if p, ok := m.panels[m.active]; ok {
		p.Dispose()
	}
	m.active = ""
}

// Current returns the active tab; ok is false before the first ShowTab.
func (m *Manager) Current() (ID, bool) {
	return m.active, m.active != ""
}

// IsActive reports whether id is the active tab.
func (m *Manager) IsActive(id ID) bool {
	return m.active != "" && m.active == id
}

// Panel returns the panel registered for id.
func (m *Manager) Panel(id ID) (Panel, bool) {
	p, ok := m.panels[id]
	return p, ok
}

// Tabs returns the registered ids in registration order.
func (m *Manager) Tabs() []ID {
	return slices.Clone(m.order)
}

// Next shows the tab after the active one, wrapping around.
func (m *Manager) Next() {
	m.step(1)
}

// Prev shows the tab before the active one, wrapping around.
func (m *Manager) Prev() {
	m.step(-1)
}

func (m *Manager) step(delta int) {
	if len(m.order) == 0 {
		return
	}
	i := slices.Index(m.order, m.active)
	if i < 0 {
		m.ShowTab(m.order[0])
		return
	}
	n := len(m.order)
	m.ShowTab(m.order[((i+delta)%n+n)%n])
}

// Render renders the active panel, or nothing when none is active.
func (m *Manager) Render(width int) string {
	p, ok := m.panels[m.active]
	if !ok {
		return ""
	}
	return p.Render(width)
}
