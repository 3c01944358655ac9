package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/nav-telemetry/tui/internal/client"
	"github.com/nav-telemetry/tui/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Session   client.Session
	Stats     *client.Stats
	Notice    string
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	state := m.Session.State
	if state == "" {
		state = "unknown"
	}
	stateStr := lipgloss.NewStyle().Foreground(theme.StateColor(state)).Render(state)
	if m.Session.Started {
		stateStr += lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render(" (session)")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + stateStr

	if m.Stats != nil {
		counts := fmt.Sprintf("%d sent  %d dropped", m.Stats.Sent, m.Stats.Dropped)
		color := theme.ColorBright
		if m.Stats.Dropped > 0 {
			color = theme.ColorWarning
		}
		content += sep + lipgloss.NewStyle().Foreground(color).Render(counts)
		if m.Stats.Pending > 0 {
			content += sep + theme.StyleDimmed.Render(fmt.Sprintf("%d windows pending", m.Stats.Pending))
		}
	}
	if m.Notice != "" {
		content += sep + theme.StyleDimmed.Render(m.Notice)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
