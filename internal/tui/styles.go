package tui

import "github.com/charmbracelet/lipgloss"

// Lipgloss Colors
const (
	ColorBorder  = "240"
	ColorTitle   = "14"  // Cyan for titles
	ColorHelp    = "245" // Grey for help text
	ColorError   = "9"   // Red for errors
	ColorRunning = "10"
	ColorPending = "11"
)

const (
	ActionHelp    = "enter: Start | ctrl+s: Stop | ctrl+o: Browser | ctrl+a: Auto-start | ctrl+f: Firewall | ctrl+l: LAN IP | pgup/pgdn: Scroll | ctrl+c: Quit"
	ActionConfirm = "y: Stop server and quit | n: Cancel"
)

// Numeric Constants for Layout
const (
	// title, state line, port line, status line, help line and the log border
	ChromeHeight  = 8
	MinLogHeight  = 5
	DefaultWidth  = 100
	DefaultHeight = 30
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorTitle))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	labelStyle = lipgloss.NewStyle().Bold(true)
	logStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder))
	confirmStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPending))

	stateStyles = map[string]lipgloss.Style{
		"running":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRunning)),
		"starting": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPending)),
		"stopping": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPending)),
		"stopped":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)),
		"idle":     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp)),
	}
)
