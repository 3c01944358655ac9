package detail

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nav-telemetry/tui/internal/client"
)

func TestMarkdown(t *testing.T) {
	ev := client.Event{
		Name: client.EventFeedback,
		Body: json.RawMessage(`{"created":"2026-01-01T10:00:00.000+0000","feedbackType":"road_closed","distanceRemaining":800,"simulation":true}`),
	}
	md := Markdown(ev)
	for _, want := range []string{
		"# navigation.feedback",
		"| distance remaining | 800m |",
		"| feedback | road_closed |",
		"| simulation | yes |",
		"```json\n{\n  \"created\"",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownTurnstileHasNoTable(t *testing.T) {
	md := Markdown(client.Event{Name: client.EventTurnstile, Body: json.RawMessage(`{"userId":"u"}`)})
	if strings.Contains(md, "| field |") {
		t.Error("turnstile should not get a navigation field table")
	}
}

func TestMarkdownKeepsInvalidJSON(t *testing.T) {
	md := Markdown(client.Event{Name: "x", Body: json.RawMessage(`{broken`)})
	if !strings.Contains(md, "{broken") {
		t.Error("invalid body should be shown verbatim")
	}
}

func TestRender(t *testing.T) {
	ev := client.Event{Name: client.EventArrive, Body: json.RawMessage(`{"distanceCompleted":1200}`)}
	out, err := Render(ev, "notty", 80)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "navigation.arrive") || !strings.Contains(out, "1200") {
		t.Errorf("rendered output missing content:\n%s", out)
	}
}

func TestSetEventAndView(t *testing.T) {
	m := New("notty")
	ev := client.Event{Name: client.EventDepart, Body: json.RawMessage(`{"distanceRemaining":900}`)}
	if err := m.SetEvent(ev, 80, 30); err != nil {
		t.Fatalf("SetEvent: %v", err)
	}
	if v := m.View(); !strings.Contains(v, "navigation.depart") || !strings.Contains(v, "esc:close") {
		t.Errorf("unexpected view:\n%s", v)
	}
}

func TestSetEventUnknownStyle(t *testing.T) {
	m := New("no-such-style")
	if err := m.SetEvent(client.Event{Name: "x", Body: json.RawMessage(`{}`)}, 80, 30); err == nil {
		t.Error("expected error for unknown style")
	}
}
