// Package dashboard shows the current trip: session values, a route
// progress bar that springs towards the latest reported distance, and the
// persisted trip history.
package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/nav-telemetry/tui/internal/client"
	"github.com/nav-telemetry/tui/internal/theme"
)

// FPS is the animation frame rate of the progress bar.
const FPS = 30

// FrameInterval is the time between two animation frames.
const FrameInterval = time.Second / FPS

const settleEpsilon = 0.001

// Model holds the dashboard state.
type Model struct {
	Width   int
	Session client.Session
	History *client.History

	latest    client.Summary
	hasRoute  bool
	spring    harmonica.Spring
	pos, vel  float64
	target    float64
	animating bool
}

// New creates a dashboard model.
func New() Model {
	return Model{spring: harmonica.NewSpring(harmonica.FPS(FPS), 6.0, 0.8)}
}

// Observe updates the progress target from a delivered event. It reports
// whether the bar needs animation frames.
func (m *Model) Observe(ev client.Event) bool {
	sum, err := ev.Summary()
	if err != nil || ev.Name == client.EventTurnstile {
		return false
	}
	m.latest = sum
	pct, ok := sum.Progress()
	if !ok {
		return false
	}
	m.hasRoute = true
	m.target = pct
	if ev.Name == client.EventDepart && m.pos > pct {
		// A new session starts over instead of springing backwards.
		m.pos, m.vel = pct, 0
	}
	m.animating = !m.settled()
	return m.animating
}

// Step advances the spring by one frame. It reports whether more frames
// are needed.
func (m *Model) Step() bool {
	if !m.animating {
		return false
	}
	m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
	if m.settled() {
		m.pos, m.vel = m.target, 0
		m.animating = false
	}
	return m.animating
}

// Position returns the displayed progress, 0..1.
func (m Model) Position() float64 {
	return math.Max(0, math.Min(1, m.pos))
}

func (m Model) settled() bool {
	return math.Abs(m.pos-m.target) < settleEpsilon && math.Abs(m.vel) < settleEpsilon
}

// View renders the trip panel and the history row.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	sections := []string{m.renderTrip(width)}
	if m.History != nil {
		sections = append(sections, m.renderHistory(width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTrip(width int) string {
	s := m.Session
	label := lipgloss.NewStyle().Foreground(theme.ColorDimmed).Width(12)
	value := lipgloss.NewStyle().Foreground(theme.ColorBright)

	var lines []string
	row := func(k, v string) { lines = append(lines, label.Render(k)+value.Render(v)) }

	if !s.Started {
		lines = append(lines, theme.StyleDimmed.Render("No navigation session"))
	} else {
		row("Session", shortID(s.ID))
		row("Trip", shortID(s.TripID))
		row("Elapsed", formatElapsed(time.Since(s.StartTime)))
		reroutes := fmt.Sprintf("%d", s.RerouteCount)
		if s.RerouteCount > 0 {
			reroutes += fmt.Sprintf(" (last after %ds)", s.SecondsSinceLastReroute)
		}
		row("Reroutes", reroutes)
		if s.ArrivalTime != nil {
			row("Arrived", s.ArrivalTime.Format("15:04:05"))
		}
	}

	if m.hasRoute {
		barWidth := max(width-30, 10)
		lines = append(lines, "", renderBar(m.Position(), barWidth)+
			theme.StyleDimmed.Render(fmt.Sprintf("  %dm left  step %d/%d",
				m.latest.DistanceRemaining, m.latest.StepIndex+1, max(m.latest.StepCount, 1))))
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderHistory(width int) string {
	h := m.History
	statStyle := lipgloss.NewStyle().Padding(0, 1)
	stats := []string{
		statStyle.Foreground(theme.ColorDepart).Render(fmt.Sprintf("Trips: %d", h.TotalSessions)),
		statStyle.Foreground(theme.ColorArrive).Render(fmt.Sprintf("Arrived: %d", h.TotalArrivals)),
		statStyle.Foreground(theme.ColorCancel).Render(fmt.Sprintf("Abandoned: %d", h.AbandonedSessions)),
		statStyle.Foreground(theme.ColorReroute).Render(fmt.Sprintf("Reroutes: %d", h.TotalReroutes)),
		statStyle.Foreground(theme.ColorFeedback).Render(fmt.Sprintf("Feedback: %d", h.TotalFeedback)),
		statStyle.Foreground(theme.ColorBright).Render("Driven: " + formatDistance(h.DistanceCompletedM)),
	}
	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

// renderBar draws the route progress bar with a percentage label.
func renderBar(pct float64, width int) string {
	filled := max(0, min(int(pct*float64(width)), width))
	color := theme.ProgressColor(pct)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("░", width-filled))
	return bar + lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf(" %3.0f%%", pct*100))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func formatDistance(m int64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1fkm", float64(m)/1000)
	}
	return fmt.Sprintf("%dm", m)
}
