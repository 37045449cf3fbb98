package theme

import "github.com/charmbracelet/lipgloss"

// Color is an alias for lipgloss.Color for convenience
type Color = lipgloss.Color

// Brand colors
const (
	ColorPrimary   Color = "99" // Purple - headers
	ColorSecondary Color = "86" // Cyan - repository names
)

// Branch colors
const (
	ColorCurrent Color = "2"   // Green - checked out branch
	ColorOwner   Color = "141" // Purple
	ColorStale   Color = "3"   // Yellow - inactive for a while
)

// UI semantic colors
const (
	ColorError   Color = "196" // Bright red
	ColorMuted   Color = "241" // Gray - secondary text
	ColorNormal  Color = "250" // Default text
	ColorSuccess Color = "46"  // Bright green
	ColorWarning Color = "214" // Orange
)
