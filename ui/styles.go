package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/nudge/internal/settings"
	te "github.com/muesli/termenv"
)

// Colors.
var (
	gray        = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray     = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	darkGray    = lipgloss.AdaptiveColor{Light: "#DDDADA", Dark: "#3C3C3C"}
	brightGray  = lipgloss.AdaptiveColor{Light: "#847A85", Dark: "#979797"}
	fuchsia     = lipgloss.Color("#EE6FF8")
	green       = lipgloss.Color("#04B575")
	red         = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	cream       = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	yellowGreen = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"}
	mintGreen   = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen   = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
)

// Ultimately, we'll transition to named styles.
var (
	subtleStyle   = lipgloss.NewStyle().Foreground(brightGray)
	headingStyle  = lipgloss.NewStyle().Foreground(fuchsia).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(fuchsia)
	valueStyle    = lipgloss.NewStyle().Foreground(yellowGreen)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(midGray)

	runningClockStyle = clockStyle.BorderForeground(green)

	captionStyle = lipgloss.NewStyle().
			Foreground(yellowGreen).
			Italic(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(brightGray).
			Padding(0, 2)

	activeButtonStyle = buttonStyle.
				Foreground(cream).
				Background(fuchsia)

	tabStyle = lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1)

	activeTabStyle = tabStyle.
			Foreground(fuchsia).
			Underline(true)

	toastStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Background(darkGreen).
			Padding(0, 1)

	toastErrorStyle = toastStyle.
			Foreground(cream).
			Background(red)

	dividerStyle = lipgloss.NewStyle().Foreground(darkGray)
)

// hasDarkBackground reports whether theme renders on a dark background.
// The auto theme asks the terminal.
func hasDarkBackground(theme string) bool {
	switch theme {
	case settings.ThemeLight:
		return false
	case settings.ThemeAuto:
		return te.HasDarkBackground()
	default:
		return true
	}
}

// applyTheme points the adaptive colors at the theme's background.
func applyTheme(theme string) {
	lipgloss.SetHasDarkBackground(hasDarkBackground(theme))
}
