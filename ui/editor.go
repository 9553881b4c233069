package ui

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/messages"
)

// speakRequestMsg asks the main model to read text aloud.
type speakRequestMsg string

// editorModel edits the messages of one category, one message per line.
type editorModel struct {
	common   *commonModel
	cat      messages.Category
	textarea textarea.Model
	quick    textinput.Model
	help     help.Model
	adding   bool
	example  int
	done     bool
}

func newEditorModel(c *commonModel, cat messages.Category) editorModel {
	ta := textarea.New()
	ta.Placeholder = strings.Join(cat.Examples(), "\n")
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.SetValue(strings.Join(c.app.Catalog.Messages(cat), "\n"))
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = "+ "
	ti.CharLimit = 200

	e := editorModel{
		common:   c,
		cat:      cat,
		textarea: ta,
		quick:    ti,
		help:     help.New(),
	}
	e.setSize(c.width, c.height)
	return e
}

func (e editorModel) Init() tea.Cmd {
	return textarea.Blink
}

func (e *editorModel) setSize(width, height int) {
	if e.common == nil {
		return
	}
	e.textarea.SetWidth(max(width-6, 20))
	e.textarea.SetHeight(max(height-12, 5))
	e.quick.Width = max(width-10, 20)
	e.help.Width = width
}

// stats returns the message and character counts of the editor text.
func (e editorModel) stats() (msgs, chars int) {
	v := e.textarea.Value()
	return len(messages.SplitEditor(v)), len([]rune(v))
}

func (e editorModel) update(msg tea.Msg) (editorModel, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		if e.adding {
			e.quick, cmd = e.quick.Update(msg)
		} else {
			e.textarea, cmd = e.textarea.Update(msg)
		}
		return e, cmd
	}

	keys := e.common.keys
	if e.adding {
		return e.updateQuickAdd(k)
	}

	switch {
	case key.Matches(k, keys.back):
		e.done = true
		return e, nil
	case key.Matches(k, keys.save):
		return e.save()
	case key.Matches(k, keys.tryOne):
		msgs := messages.SplitEditor(e.textarea.Value())
		if len(msgs) == 0 {
			return e, send(statusMsg{text: "No messages to test!", isError: true})
		}
		return e, send(speakRequestMsg(msgs[rand.IntN(len(msgs))])) //nolint:gosec
	case key.Matches(k, keys.quickAdd):
		e.adding = true
		e.example = 0
		e.quick.SetValue("")
		if ex := e.cat.Examples(); len(ex) > 0 {
			e.quick.Placeholder = ex[0]
		}
		e.textarea.Blur()
		return e, e.quick.Focus()
	}

	var cmd tea.Cmd
	e.textarea, cmd = e.textarea.Update(msg)
	return e, cmd
}

func (e editorModel) updateQuickAdd(k tea.KeyMsg) (editorModel, tea.Cmd) {
	keys := e.common.keys
	switch {
	case key.Matches(k, keys.back):
		e.closeQuickAdd()
		return e, textarea.Blink
	case key.Matches(k, keys.tryOne):
		text := strings.TrimSpace(e.quick.Value())
		if text == "" {
			return e, send(statusMsg{text: "Please enter a message to test!", isError: true})
		}
		return e, send(speakRequestMsg(text))
	case k.String() == "tab":
		if ex := e.cat.Examples(); len(ex) > 0 {
			e.quick.SetValue(ex[e.example%len(ex)])
			e.quick.CursorEnd()
			e.example++
		}
		return e, nil
	case k.String() == "enter":
		text := strings.TrimSpace(e.quick.Value())
		if text == "" {
			return e, send(statusMsg{text: "Please enter a message!", isError: true})
		}
		if err := e.common.app.Catalog.Add(e.cat, text); err != nil {
			log.Error("quick add", "category", e.cat, "error", err)
			return e, send(errMsg{err})
		}
		v := strings.TrimRight(e.textarea.Value(), "\n")
		if v != "" {
			v += "\n"
		}
		e.textarea.SetValue(v + text)
		e.closeQuickAdd()
		return e, send(statusMsg{text: fmt.Sprintf("✓ Added %q to %s", text, e.cat.Name())})
	}

	var cmd tea.Cmd
	e.quick, cmd = e.quick.Update(k)
	return e, cmd
}

func (e *editorModel) closeQuickAdd() {
	e.adding = false
	e.quick.Blur()
	e.quick.SetValue("")
	e.textarea.Focus()
}

func (e editorModel) save() (editorModel, tea.Cmd) {
	msgs := messages.SplitEditor(e.textarea.Value())
	if len(msgs) == 0 {
		return e, send(statusMsg{text: "Please add at least one message!", isError: true})
	}
	if err := e.common.app.Catalog.Save(e.cat, msgs); err != nil {
		return e, send(errMsg{fmt.Errorf("saving messages: %w", err)})
	}
	e.done = true
	return e, send(statusMsg{text: fmt.Sprintf("✓ Saved %d messages to %s", len(msgs), e.cat.Name())})
}

func (e editorModel) View() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Edit " + e.cat.Name()))
	b.WriteString("\n\n")
	b.WriteString(e.textarea.View())
	b.WriteString("\n")

	n, chars := e.stats()
	b.WriteString(subtleStyle.Render(fmt.Sprintf("%d message%s · %d characters", n, plural(n), chars)))
	b.WriteString("\n")

	if e.adding {
		b.WriteString("\n")
		b.WriteString(selectedStyle.Render("Quick add to " + e.cat.Name()))
		b.WriteString("\n")
		b.WriteString(e.quick.View())
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render("tab: use an example · enter: add · esc: cancel"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(e.help.View(editorKeys{e.common.keys}))
	return "\n" + indent(b.String(), 2)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
