package theme

import (
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// Report styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	RepoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorNormal)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Branch styles
var (
	CurrentBranchStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorCurrent)

	OwnerStyle = lipgloss.NewStyle().
			Foreground(ColorOwner)

	StaleStyle = lipgloss.NewStyle().
			Foreground(ColorStale)
)

// Outcome styles
var (
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)
)

var enabled = detectColor()

func detectColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// SetEnabled forces styling on or off
func SetEnabled(on bool) {
	enabled = on
}

// Enabled reports whether output is styled
func Enabled() bool {
	return enabled
}

// Render applies style to text when styling is enabled
func Render(style lipgloss.Style, text string) string {
	if !enabled {
		return text
	}
	return style.Render(text)
}

// RelativeTime formats t relative to now ("3 days ago"), or "never" for the zero time
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
