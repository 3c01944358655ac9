package navigation

import (
	"encoding/json"
	"testing"

	"github.com/nav-telemetry/backend/internal/geo"
)

func TestSessionStateMarshalJSON(t *testing.T) {
	tests := []struct {
		state    SessionState
		expected string
	}{
		{Idle, `"idle"`},
		{FreeDrive, `"free_drive"`},
		{ActiveGuidance, `"active_guidance"`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.state)
		if err != nil {
			t.Errorf("Marshal(%v) error: %v", tt.state, err)
			continue
		}
		if string(data) != tt.expected {
			t.Errorf("Marshal(%v) = %s, want %s", tt.state, data, tt.expected)
		}
	}
}

func TestSessionStateUnmarshalJSON(t *testing.T) {
	var s SessionState
	if err := json.Unmarshal([]byte(`"active_guidance"`), &s); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if s != ActiveGuidance {
		t.Errorf("Unmarshal = %v, want active_guidance", s)
	}

	if err := json.Unmarshal([]byte(`"parked"`), &s); err == nil {
		t.Error("Unmarshal of unknown state should fail")
	}
}

func TestRouteStepCountAndDestination(t *testing.T) {
	r := Route{
		Geometry: []geo.Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}},
		Legs: []Leg{
			{Steps: []Step{{}, {}}},
			{Steps: []Step{{}}},
		},
	}
	if got := r.StepCount(); got != 3 {
		t.Errorf("StepCount() = %d, want 3", got)
	}
	dest, ok := r.Destination()
	if !ok || dest != (geo.Point{Lat: 2, Lng: 2}) {
		t.Errorf("Destination() = %+v, %v", dest, ok)
	}

	if _, ok := (Route{}).Destination(); ok {
		t.Error("Destination() of empty geometry should report false")
	}
}

func TestProgressStateString(t *testing.T) {
	if RouteComplete.String() != "route_complete" {
		t.Errorf("RouteComplete.String() = %q", RouteComplete.String())
	}
	if ProgressState(99).String() != "unknown" {
		t.Error("unknown progress state should stringify as unknown")
	}
}
