// Package events provides the scrollable event log.
package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/nav-telemetry/tui/internal/client"
	"github.com/nav-telemetry/tui/internal/theme"
)

// DefaultMaxEntries bounds the log when New is given a non-positive size.
const DefaultMaxEntries = 200

// Entry is one received event.
type Entry struct {
	Received time.Time
	Event    client.Event
	Summary  client.Summary
}

// Model holds the event log. The cursor follows the newest entry until the
// user moves it.
type Model struct {
	Entries []Entry
	Cursor  int
	follow  bool
	max     int
}

func New(maxEntries int) Model {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return Model{follow: true, max: maxEntries}
}

// Add appends events and drops the oldest past the limit.
func (m *Model) Add(evs ...client.Event) {
	now := time.Now()
	for _, ev := range evs {
		sum, _ := ev.Summary()
		m.Entries = append(m.Entries, Entry{Received: now, Event: ev, Summary: sum})
	}
	if over := len(m.Entries) - m.max; over > 0 {
		m.Entries = m.Entries[over:]
		m.Cursor -= over
	}
	if m.follow || m.Cursor < 0 {
		m.Cursor = len(m.Entries) - 1
	}
}

// Reset replaces the log, as after a snapshot.
func (m *Model) Reset(evs []client.Event) {
	m.Entries = nil
	m.follow = true
	m.Add(evs...)
}

// Up moves the cursor towards older entries.
func (m *Model) Up(n int) {
	if len(m.Entries) == 0 {
		return
	}
	m.follow = false
	m.Cursor = max(m.Cursor-n, 0)
}

// Down moves the cursor towards newer entries. Reaching the newest entry
// resumes following.
func (m *Model) Down(n int) {
	if len(m.Entries) == 0 {
		return
	}
	m.Cursor = min(m.Cursor+n, len(m.Entries)-1)
	m.follow = m.Cursor == len(m.Entries)-1
}

// Selected returns the entry under the cursor.
func (m Model) Selected() (Entry, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Entries) {
		return Entry{}, false
	}
	return m.Entries[m.Cursor], true
}

// View renders the log in a panel of the given size.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	visible := height - 4
	if visible < 3 {
		visible = 3
	}

	title := theme.StyleHeader.Render(fmt.Sprintf(" EVENTS (%d) ", len(m.Entries)))
	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  No events received yet.")
		return panel(innerW).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
	}

	// Keep the cursor inside the window.
	end := len(m.Entries)
	if m.Cursor < end-visible {
		end = m.Cursor + visible
	}
	start := max(end-visible, 0)
	if m.Cursor < start {
		start = m.Cursor
		end = min(start+visible, len(m.Entries))
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, renderLine(m.Entries[i], i == m.Cursor, innerW))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
	if !m.follow {
		content += "\n" + theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d newer", len(m.Entries)-1-m.Cursor))
	}
	return panel(innerW).Render(content)
}

func panel(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder)
}

func renderLine(e Entry, selected bool, width int) string {
	prefix := "  "
	if selected {
		prefix = theme.StyleSelected.Render("> ")
	}
	ts := theme.StyleDimmed.Render(e.Received.Format("15:04:05"))
	color := theme.EventColor(e.Event.Name)
	name := lipgloss.NewStyle().Foreground(color).Width(20).
		Render(theme.EventGlyph(e.Event.Name) + " " + shortName(e.Event.Name))

	detail := describe(e)
	if room := width - 34; room > 3 && len(detail) > room {
		detail = detail[:room-3] + "..."
	}
	return fmt.Sprintf("%s%s %s %s", prefix, ts, name, theme.StyleDimmed.Render(detail))
}

// describe is the one-line summary shown after the event name.
func describe(e Entry) string {
	s := e.Summary
	switch e.Event.Name {
	case client.EventTurnstile:
		return "telemetry initialized"
	case client.EventFeedback:
		return fmt.Sprintf("%s  %dm remaining", s.FeedbackType, s.DistanceRemaining)
	case client.EventReroute:
		return fmt.Sprintf("reroute #%d  %dm remaining", s.RerouteCount, s.DistanceRemaining)
	}
	d := fmt.Sprintf("%dm done  %dm remaining", s.DistanceCompleted, s.DistanceRemaining)
	if s.Simulation {
		d += "  [sim]"
	}
	return d
}

func shortName(name string) string {
	return strings.TrimPrefix(name, "navigation.")
}
