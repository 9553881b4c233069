package ui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

// glamourStyle picks the configured glamour style, or the one matching the
// current theme.
func glamourStyle(c *commonModel) string {
	if c.cfg.GlamourStyle != "" && c.cfg.GlamourStyle != styles.AutoStyle {
		return c.cfg.GlamourStyle
	}
	if hasDarkBackground(c.app.Settings.Get().Theme) {
		return styles.DarkStyle
	}
	return styles.LightStyle
}

// renderMarkdown renders a message file for display.
func renderMarkdown(c *commonModel, md string, width int) (string, error) {
	width = max(0, min(int(c.cfg.GlamourMaxWidth), width)) //nolint:gosec
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(glamourStyle(c)),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}
