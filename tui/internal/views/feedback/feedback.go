// Package feedback implements the user feedback form.
package feedback

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nav-telemetry/tui/internal/client"
	"github.com/nav-telemetry/tui/internal/theme"
)

const descriptionLimit = 280

// Model is the form state: a feedback type picked from client.FeedbackTypes
// and a free text description.
type Model struct {
	typeIdx int
	input   textinput.Model
	Status  string
}

func New() Model {
	ti := textinput.New()
	ti.Placeholder = "what went wrong?"
	ti.CharLimit = descriptionLimit
	ti.Width = 48
	return Model{input: ti}
}

// Focus resets the form and focuses the description field.
func (m *Model) Focus() tea.Cmd {
	m.typeIdx = 0
	m.Status = ""
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *Model) Blur() {
	m.input.Blur()
}

// NextType and PrevType cycle the feedback type.
func (m *Model) NextType() {
	m.typeIdx = (m.typeIdx + 1) % len(client.FeedbackTypes)
}

func (m *Model) PrevType() {
	m.typeIdx = (m.typeIdx - 1 + len(client.FeedbackTypes)) % len(client.FeedbackTypes)
}

// Type returns the selected feedback type.
func (m Model) Type() string {
	return client.FeedbackTypes[m.typeIdx]
}

// Feedback returns the submission for the current form values.
func (m Model) Feedback() client.Feedback {
	return client.Feedback{
		Type:        m.Type(),
		Description: strings.TrimSpace(m.input.Value()),
		Source:      "user",
	}
}

// Update forwards typing to the description field.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.StyleHeader.Render("Send feedback") + "\n\n")

	for i, t := range client.FeedbackTypes {
		if i == m.typeIdx {
			b.WriteString(theme.StyleSelected.Render("● "+t) + "\n")
		} else {
			b.WriteString(theme.StyleDimmed.Render("○ "+t) + "\n")
		}
	}
	b.WriteString("\n" + m.input.View() + "\n")
	if m.Status != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(m.Status) + "\n")
	}
	b.WriteString("\n" + theme.StyleDimmed.Render(fmt.Sprintf("tab/shift+tab:type  enter:send  esc:cancel  %d/%d", len(m.input.Value()), descriptionLimit)))

	return theme.StyleBorder.Padding(0, 1).Render(b.String())
}
