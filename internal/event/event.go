// Package event defines the analytics events produced by the telemetry.
//
// Navigation events form a closed set: Depart, Arrive, Cancel, Reroute and
// Feedback all embed Base and satisfy Event through it. The unexported
// marker method keeps other packages from adding variants.
package event

import (
	"time"

	"github.com/nav-telemetry/backend/internal/device"
	"github.com/nav-telemetry/backend/internal/geo"
	"github.com/nav-telemetry/backend/internal/navigation"
)

const (
	NameDepart    = "navigation.depart"
	NameArrive    = "navigation.arrive"
	NameCancel    = "navigation.cancel"
	NameReroute   = "navigation.reroute"
	NameFeedback  = "navigation.feedback"
	NameTurnstile = "appUserTurnstile"
)

// Version is the schema version stamped onto navigation events.
const Version = 7

const timestampLayout = "2006-01-02T15:04:05.000-0700"

// FormatTime renders t in the layout used by every timestamp field.
func FormatTime(t time.Time) string {
	return t.Format(timestampLayout)
}

// Event is implemented by the navigation event variants only.
type Event interface {
	EventName() string
	Common() *Base
	navigationEvent()
}

// Base is the payload shared by every navigation event.
type Base struct {
	Event   string `json:"event"`
	Created string `json:"created"`
	Version int    `json:"version"`

	SDKIdentifier     string `json:"sdkIdentifier"`
	SessionIdentifier string `json:"sessionIdentifier"`
	TripIdentifier    string `json:"tripIdentifier"`
	StartTimestamp    string `json:"startTimestamp"`
	LocationEngine    string `json:"locationEngine"`
	Simulation        bool   `json:"simulation"`

	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	Profile                   string      `json:"profile,omitempty"`
	RequestIdentifier         string      `json:"requestIdentifier,omitempty"`
	OriginalRequestIdentifier string      `json:"originalRequestIdentifier,omitempty"`
	Geometry                  []geo.Point `json:"geometry,omitempty"`
	OriginalGeometry          []geo.Point `json:"originalGeometry,omitempty"`

	EstimatedDistance             int `json:"estimatedDistance"`
	EstimatedDuration             int `json:"estimatedDuration"`
	OriginalEstimatedDistance     int `json:"originalEstimatedDistance"`
	OriginalEstimatedDuration     int `json:"originalEstimatedDuration"`
	DistanceCompleted             int `json:"distanceCompleted"`
	DistanceRemaining             int `json:"distanceRemaining"`
	DurationRemaining             int `json:"durationRemaining"`
	AbsoluteDistanceToDestination int `json:"absoluteDistanceToDestination"`

	StepIndex         int `json:"stepIndex"`
	StepCount         int `json:"stepCount"`
	TotalStepCount    int `json:"totalStepCount"`
	OriginalStepCount int `json:"originalStepCount"`
	LegIndex          int `json:"legIndex"`
	LegCount          int `json:"legCount"`
	RerouteCount      int `json:"rerouteCount"`

	PercentTimeInPortrait   int `json:"percentTimeInPortrait"`
	PercentTimeInForeground int `json:"percentTimeInForeground"`

	Phone device.State `json:"phone"`
}

func (b *Base) Common() *Base    { return b }
func (b *Base) navigationEvent() {}

type Depart struct {
	Base
}

func (*Depart) EventName() string { return NameDepart }

type Arrive struct {
	Base
}

func (*Arrive) EventName() string { return NameArrive }

type Cancel struct {
	Base
	ArrivalTimestamp string `json:"arrivalTimestamp,omitempty"`
}

func (*Cancel) EventName() string { return NameCancel }

type Reroute struct {
	Base
	NewDistanceRemaining    int         `json:"newDistanceRemaining"`
	NewDurationRemaining    int         `json:"newDurationRemaining"`
	NewGeometry             []geo.Point `json:"newGeometry,omitempty"`
	SecondsSinceLastReroute int         `json:"secondsSinceLastReroute"`
	LocationsBefore         []Location  `json:"locationsBefore"`
	LocationsAfter          []Location  `json:"locationsAfter"`
}

func (*Reroute) EventName() string { return NameReroute }

// Feedback types accepted from the host application.
const (
	FeedbackGeneral                 = "general"
	FeedbackIncorrectVisualGuidance = "incorrect_visual_guidance"
	FeedbackIncorrectAudioGuidance  = "incorrect_audio_guidance"
	FeedbackRoutingError            = "routing_error"
	FeedbackNotAllowed              = "not_allowed"
	FeedbackRoadClosed              = "road_closed"
	FeedbackPositioningIssue        = "positioning_issue"
)

// Feedback sources.
const (
	SourceUser    = "user"
	SourceReroute = "reroute"
	SourceUnknown = "unknown"
)

// AppMetadata describes the host application attached to user feedback.
type AppMetadata struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type Feedback struct {
	Base
	FeedbackID      string       `json:"feedbackId"`
	FeedbackType    string       `json:"feedbackType"`
	Source          string       `json:"source"`
	Description     string       `json:"description"`
	Screenshot      string       `json:"screenshot,omitempty"`
	FeedbackSubType []string     `json:"feedbackSubType,omitempty"`
	AppMetadata     *AppMetadata `json:"appMetadata,omitempty"`
	LocationsBefore []Location   `json:"locationsBefore"`
	LocationsAfter  []Location   `json:"locationsAfter"`
}

func (*Feedback) EventName() string { return NameFeedback }

// Turnstile is posted once per initialization. It is not a navigation
// event and bypasses the dispatch gate.
type Turnstile struct {
	Event         string `json:"event"`
	Created       string `json:"created"`
	SDKIdentifier string `json:"sdkIdentifier"`
	SDKVersion    string `json:"sdkVersion"`
	UserID        string `json:"userId"`
	Enabled       bool   `json:"enabled.telemetry"`
}

func (*Turnstile) EventName() string { return NameTurnstile }

// Location is the wire shape of a location sample inside an event.
type Location struct {
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
	Speed              float64 `json:"speed"`
	Course             float64 `json:"course"`
	Altitude           float64 `json:"altitude"`
	Timestamp          string  `json:"timestamp"`
	HorizontalAccuracy float64 `json:"horizontalAccuracy"`
	VerticalAccuracy   float64 `json:"verticalAccuracy"`
}

// FromLocations converts raw samples to their event representation. The
// result is never nil so it marshals as an empty array.
func FromLocations(locs []navigation.Location) []Location {
	out := make([]Location, 0, len(locs))
	for _, l := range locs {
		out = append(out, Location{
			Lat:                l.Latitude,
			Lng:                l.Longitude,
			Speed:              l.Speed,
			Course:             l.Bearing,
			Altitude:           l.Altitude,
			Timestamp:          FormatTime(l.Time),
			HorizontalAccuracy: l.HorizontalAccuracy,
			VerticalAccuracy:   l.VerticalAccuracy,
		})
	}
	return out
}
