// Package theme provides the Lip Gloss color palette and reusable styles
// for the console. It is a leaf package with no internal imports to avoid
// import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Event colors.
var (
	ColorDepart    = lipgloss.Color("#22c55e")
	ColorArrive    = lipgloss.Color("#06b6d4")
	ColorCancel    = lipgloss.Color("#9ca3af")
	ColorReroute   = lipgloss.Color("#d97706")
	ColorFeedback  = lipgloss.Color("#a855f7")
	ColorTurnstile = lipgloss.Color("#3b82f6")
	ColorDefault   = lipgloss.Color("#9ca3af")
)

// Navigation state colors.
var (
	ColorActiveGuidance = lipgloss.Color("#2563eb")
	ColorFreeDrive      = lipgloss.Color("#7c3aed")
	ColorIdle           = lipgloss.Color("#4b5563")
)

// Progress bar thresholds.
var (
	ColorProgressLow  = lipgloss.Color("#d97706") // <33%
	ColorProgressMid  = lipgloss.Color("#3b82f6") // 33-90%
	ColorProgressHigh = lipgloss.Color("#22c55e") // >90%
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// EventColor returns the color for an event name.
func EventColor(name string) lipgloss.Color {
	switch name {
	case "navigation.depart":
		return ColorDepart
	case "navigation.arrive":
		return ColorArrive
	case "navigation.cancel":
		return ColorCancel
	case "navigation.reroute":
		return ColorReroute
	case "navigation.feedback":
		return ColorFeedback
	case "appUserTurnstile":
		return ColorTurnstile
	default:
		return ColorDefault
	}
}

// EventGlyph returns a Unicode glyph for an event name.
func EventGlyph(name string) string {
	switch name {
	case "navigation.depart":
		return "▶"
	case "navigation.arrive":
		return "⚑"
	case "navigation.cancel":
		return "■"
	case "navigation.reroute":
		return "↻"
	case "navigation.feedback":
		return "✎"
	case "appUserTurnstile":
		return "◎"
	default:
		return "·"
	}
}

// StateColor returns the color for a navigation session state.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "active_guidance":
		return ColorActiveGuidance
	case "free_drive":
		return ColorFreeDrive
	case "idle":
		return ColorIdle
	default:
		return ColorDefault
	}
}

// ProgressColor returns the color for a route completion fraction.
func ProgressColor(pct float64) lipgloss.Color {
	switch {
	case pct > 0.9:
		return ColorProgressHigh
	case pct > 0.33:
		return ColorProgressMid
	default:
		return ColorProgressLow
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)
