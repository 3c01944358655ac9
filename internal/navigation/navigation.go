// Package navigation holds the types and observer interfaces exchanged with
// the navigation engine. The engine itself lives outside this module; the
// telemetry registers itself as an observer of every signal listed here.
package navigation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nav-telemetry/backend/internal/geo"
)

// Location is a single raw location fix. Values are never mutated after
// they are handed to an observer.
type Location struct {
	Latitude           float64   `json:"lat"`
	Longitude          float64   `json:"lng"`
	Speed              float64   `json:"speed"`
	Bearing            float64   `json:"bearing"`
	Altitude           float64   `json:"altitude"`
	Time               time.Time `json:"time"`
	HorizontalAccuracy float64   `json:"horizontalAccuracy"`
	VerticalAccuracy   float64   `json:"verticalAccuracy,omitempty"`
}

// Point returns the coordinate of the fix.
func (l Location) Point() geo.Point {
	return geo.Point{Lat: l.Latitude, Lng: l.Longitude}
}

// Step is one maneuver of a route leg.
type Step struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Name     string  `json:"name,omitempty"`
}

// Leg is the part of a route between two waypoints.
type Leg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Steps    []Step  `json:"steps"`
}

// Route is a directions route as produced by the routing service.
type Route struct {
	RequestID  string      `json:"requestId,omitempty"`
	Profile    string      `json:"profile,omitempty"`
	RouteIndex int         `json:"routeIndex"`
	Distance   float64     `json:"distance"` // metres
	Duration   float64     `json:"duration"` // seconds
	Geometry   []geo.Point `json:"geometry"`
	Legs       []Leg       `json:"legs"`
}

// StepCount returns the number of steps across all legs.
func (r Route) StepCount() int {
	n := 0
	for _, leg := range r.Legs {
		n += len(leg.Steps)
	}
	return n
}

// Destination returns the last coordinate of the route geometry.
func (r Route) Destination() (geo.Point, bool) {
	if len(r.Geometry) == 0 {
		return geo.Point{}, false
	}
	return r.Geometry[len(r.Geometry)-1], true
}

// ProgressState is the tracking state reported with each progress update.
type ProgressState int

const (
	RouteInvalid ProgressState = iota
	RouteInitialized
	LocationTracking
	RouteComplete
	OffRoute
	Uncertain
)

var progressStateNames = map[ProgressState]string{
	RouteInvalid:     "route_invalid",
	RouteInitialized: "route_initialized",
	LocationTracking: "location_tracking",
	RouteComplete:    "route_complete",
	OffRoute:         "off_route",
	Uncertain:        "uncertain",
}

func (s ProgressState) String() string {
	if n, ok := progressStateNames[s]; ok {
		return n
	}
	return "unknown"
}

// RouteProgress is a progress update along the active route.
type RouteProgress struct {
	Route             Route         `json:"route"`
	State             ProgressState `json:"state"`
	DistanceRemaining float64       `json:"distanceRemaining"`
	DurationRemaining float64       `json:"durationRemaining"`
	DistanceTraveled  float64       `json:"distanceTraveled"`
	LegIndex          int           `json:"legIndex"`
	StepIndex         int           `json:"stepIndex"`
}

// SessionState is the navigation session state reported by the engine.
type SessionState int

const (
	Idle SessionState = iota
	FreeDrive
	ActiveGuidance
)

var sessionStateNames = map[SessionState]string{
	Idle:           "idle",
	FreeDrive:      "free_drive",
	ActiveGuidance: "active_guidance",
}

var sessionStateFromName = map[string]SessionState{
	"idle":            Idle,
	"free_drive":      FreeDrive,
	"active_guidance": ActiveGuidance,
}

func (s SessionState) String() string {
	if n, ok := sessionStateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s SessionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SessionState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, ok := sessionStateFromName[name]
	if !ok {
		return fmt.Errorf("unknown session state %q", name)
	}
	*s = v
	return nil
}

type LocationObserver interface {
	OnRawLocationChanged(loc Location)
}

type RouteProgressObserver interface {
	OnRouteProgressChanged(progress RouteProgress)
}

type RoutesObserver interface {
	OnRoutesChanged(routes []Route)
}

type OffRouteObserver interface {
	OnOffRouteStateChanged(offRoute bool)
}

type SessionObserver interface {
	OnNavigationSessionStateChanged(state SessionState)
}

// Observer is the full capability set the telemetry implements.
type Observer interface {
	LocationObserver
	RouteProgressObserver
	RoutesObserver
	OffRouteObserver
	SessionObserver
}

// Navigator is the part of the navigation engine that accepts observers.
type Navigator interface {
	RegisterLocationObserver(o LocationObserver)
	UnregisterLocationObserver(o LocationObserver)
	RegisterRouteProgressObserver(o RouteProgressObserver)
	UnregisterRouteProgressObserver(o RouteProgressObserver)
	RegisterRoutesObserver(o RoutesObserver)
	UnregisterRoutesObserver(o RoutesObserver)
	RegisterOffRouteObserver(o OffRouteObserver)
	UnregisterOffRouteObserver(o OffRouteObserver)
	RegisterSessionObserver(o SessionObserver)
	UnregisterSessionObserver(o SessionObserver)
}

// RegisterAll registers o for every signal the navigator emits.
func RegisterAll(n Navigator, o Observer) {
	n.RegisterRouteProgressObserver(o)
	n.RegisterLocationObserver(o)
	n.RegisterRoutesObserver(o)
	n.RegisterOffRouteObserver(o)
	n.RegisterSessionObserver(o)
}

// UnregisterAll reverses RegisterAll.
func UnregisterAll(n Navigator, o Observer) {
	n.UnregisterRouteProgressObserver(o)
	n.UnregisterLocationObserver(o)
	n.UnregisterRoutesObserver(o)
	n.UnregisterOffRouteObserver(o)
	n.UnregisterSessionObserver(o)
}
