// Package detail renders a single event as a scrollable Markdown document.
package detail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/nav-telemetry/tui/internal/client"
	"github.com/nav-telemetry/tui/internal/theme"
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Model holds the detail overlay for one event.
type Model struct {
	style    string
	event    client.Event
	viewport viewport.Model
}

// New creates a detail model. style is a glamour standard style name
// ("dark", "light", "notty", ...).
func New(style string) Model {
	return Model{style: style, viewport: viewport.New(0, 0)}
}

// SetEvent renders ev at the given size and scrolls to the top.
func (m *Model) SetEvent(ev client.Event, width, height int) error {
	m.event = ev
	m.viewport.Width = max(width-4, 20)
	m.viewport.Height = max(height-4, 5)

	out, err := Render(ev, m.style, m.viewport.Width)
	if err != nil {
		return err
	}
	m.viewport.SetContent(out)
	m.viewport.GotoTop()
	return nil
}

// Update forwards scroll keys to the viewport.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m Model) View() string {
	footer := styleFooter.Render(fmt.Sprintf("j/k:scroll  esc:close  %3.0f%%", m.viewport.ScrollPercent()*100))
	return stylePanel.Render(lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer))
}

// Render converts ev to Markdown and renders it with glamour.
func Render(ev client.Event, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("glamour renderer: %w", err)
	}
	return r.Render(Markdown(ev))
}

// Markdown is the document shown for an event: a heading, a table of the
// headline fields and the full body as a JSON block.
func Markdown(ev client.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", ev.Name)

	if sum, err := ev.Summary(); err == nil && ev.Name != client.EventTurnstile {
		b.WriteString("| field | value |\n|---|---|\n")
		row := func(k string, v any) { fmt.Fprintf(&b, "| %s | %v |\n", k, v) }
		row("created", sum.Created)
		row("session", sum.SessionIdentifier)
		row("distance completed", fmt.Sprintf("%dm", sum.DistanceCompleted))
		row("distance remaining", fmt.Sprintf("%dm", sum.DistanceRemaining))
		row("duration remaining", fmt.Sprintf("%ds", sum.DurationRemaining))
		row("step", fmt.Sprintf("%d / %d", sum.StepIndex, sum.StepCount))
		row("reroutes", sum.RerouteCount)
		if sum.FeedbackType != "" {
			row("feedback", sum.FeedbackType)
		}
		if sum.Simulation {
			row("simulation", "yes")
		}
		b.WriteString("\n")
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, ev.Body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(ev.Body)
	}
	b.WriteString("```json\n")
	b.Write(pretty.Bytes())
	b.WriteString("\n```\n")
	return b.String()
}
