package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/nudge/internal/tabs"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// field is one row of a settings form.
type field struct {
	section string // heading rendered above the row, if any
	label   string
	value   func() string

	// adjust handles left/right; activate handles enter. Either may be nil.
	adjust   func(delta int) error
	activate func() tea.Cmd

	// detail renders below the form while the row is selected.
	detail func(width int) string
}

func (f field) selectable() bool {
	return f.adjust != nil || f.activate != nil || f.detail != nil
}

// form is a vertical list of fields with a cursor. It implements tabs.Panel.
type form struct {
	title  string
	intro  string
	fields func() []field
	cursor int
}

var (
	_ tabs.Panel     = (*form)(nil)
	_ tabs.Activator = (*form)(nil)
)

func newForm(title, intro string, fields func() []field) *form {
	return &form{title: title, intro: intro, fields: fields}
}

// Activate implements tabs.Activator.
func (f *form) Activate() {
	f.cursor = f.first()
}

// Dispose implements tabs.Panel.
func (f *form) Dispose() {}

func (f *form) first() int {
	for i, fl := range f.fields() {
		if fl.selectable() {
			return i
		}
	}
	return 0
}

// move steps the cursor over non-selectable rows.
func (f *form) move(delta int) {
	fields := f.fields()
	if len(fields) == 0 {
		return
	}
	i := f.cursor
	for range fields {
		i = (i + delta + len(fields)) % len(fields)
		if fields[i].selectable() {
			f.cursor = i
			return
		}
	}
}

func (f *form) selected() (field, bool) {
	fields := f.fields()
	if f.cursor < 0 || f.cursor >= len(fields) {
		return field{}, false
	}
	return fields[f.cursor], true
}

// adjust changes the selected value.
func (f *form) adjust(delta int) error {
	fl, ok := f.selected()
	if !ok || fl.adjust == nil {
		return nil
	}
	return fl.adjust(delta)
}

// activate runs the selected row's action. Rows without one are adjusted
// forward, which toggles switches and cycles choices.
func (f *form) activate() (tea.Cmd, error) {
	fl, ok := f.selected()
	if !ok {
		return nil, nil
	}
	if fl.activate != nil {
		return fl.activate(), nil
	}
	if fl.adjust != nil {
		return nil, fl.adjust(1)
	}
	return nil, nil
}

// Render implements tabs.Panel.
func (f *form) Render(width int) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(f.title))
	b.WriteString("\n")
	if f.intro != "" {
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(wordwrap.String(f.intro, max(width, 20))))
		b.WriteString("\n")
	}

	fields := f.fields()
	labelWidth := 0
	for _, fl := range fields {
		labelWidth = max(labelWidth, runewidth.StringWidth(fl.label))
	}

	for i, fl := range fields {
		if fl.section != "" {
			b.WriteString("\n")
			b.WriteString(subtleStyle.Render(strings.ToUpper(fl.section)))
			b.WriteString("\n")
		}
		cursor := "  "
		label := fl.label + strings.Repeat(" ", labelWidth-runewidth.StringWidth(fl.label))
		if i == f.cursor && fl.selectable() {
			cursor = selectedStyle.Render("> ")
			label = selectedStyle.Render(label)
		}
		line := fmt.Sprintf("%s%s  ", cursor, label)
		if fl.value != nil {
			room := max(width-labelWidth-4, 8)
			line += valueStyle.Render(truncate.StringWithTail(fl.value(), uint(room), ellipsis)) //nolint:gosec
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if fl, ok := f.selected(); ok && fl.detail != nil {
		if d := fl.detail(width); d != "" {
			b.WriteString("\n")
			b.WriteString(d)
		}
	}
	return b.String()
}
