package feedback

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nav-telemetry/tui/internal/client"
)

func TestTypeCycling(t *testing.T) {
	m := New()
	if m.Type() != "general" {
		t.Fatalf("initial type = %q", m.Type())
	}
	m.PrevType()
	if m.Type() != client.FeedbackTypes[len(client.FeedbackTypes)-1] {
		t.Errorf("PrevType should wrap to last, got %q", m.Type())
	}
	m.NextType()
	m.NextType()
	if m.Type() != client.FeedbackTypes[1] {
		t.Errorf("type = %q, want %q", m.Type(), client.FeedbackTypes[1])
	}
}

func TestTypingFillsDescription(t *testing.T) {
	m := New()
	m.Focus()
	m.NextType()
	for _, r := range "  wrong turn " {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	fb := m.Feedback()
	if fb.Description != "wrong turn" || fb.Type != client.FeedbackTypes[1] || fb.Source != "user" {
		t.Errorf("unexpected feedback %+v", fb)
	}

	m.Focus()
	if m.Feedback().Description != "" || m.Type() != "general" {
		t.Error("Focus should reset the form")
	}
}

func TestView(t *testing.T) {
	m := New()
	m.Status = "no session running"
	v := m.View()
	for _, want := range []string{"Send feedback", "road_closed", "no session running"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
