// Package client provides WebSocket and HTTP clients for the telemetry
// daemon. Types mirror the daemon's wire protocol without importing its
// packages.
package client

import (
	"encoding/json"
	"time"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgEvents   MessageType = "events"
	MsgError    MessageType = "error"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// Event names as sent by the daemon.
const (
	EventDepart    = "navigation.depart"
	EventArrive    = "navigation.arrive"
	EventCancel    = "navigation.cancel"
	EventReroute   = "navigation.reroute"
	EventFeedback  = "navigation.feedback"
	EventTurnstile = "appUserTurnstile"
)

// FeedbackTypes lists the feedback categories accepted by the daemon, in
// the order the feedback form cycles through them.
var FeedbackTypes = []string{
	"general",
	"incorrect_visual_guidance",
	"incorrect_audio_guidance",
	"routing_error",
	"not_allowed",
	"road_closed",
	"positioning_issue",
}

// Session mirrors the daemon's session values.
type Session struct {
	ID                      string     `json:"id"`
	TripID                  string     `json:"tripId"`
	State                   string     `json:"state"`
	Started                 bool       `json:"started"`
	StartTime               time.Time  `json:"startTime"`
	ArrivalTime             *time.Time `json:"arrivalTime,omitempty"`
	RerouteCount            int        `json:"rerouteCount"`
	SecondsSinceLastReroute int        `json:"secondsSinceLastReroute"`
}

// Stats mirrors the dispatch counters returned by /api/stats.
type Stats struct {
	Sent           int64            `json:"sent"`
	Dropped        int64            `json:"dropped"`
	DroppedBy      map[string]int64 `json:"droppedBy"`
	SentBy         map[string]int64 `json:"sentBy"`
	LastDropReason string           `json:"lastDropReason,omitempty"`
	LastDropEvent  string           `json:"lastDropEvent,omitempty"`
	Session        string           `json:"session"`
	Started        bool             `json:"started"`
	Pending        int              `json:"pendingPostEventWindows"`
	Clients        int              `json:"clients,omitempty"`
}

// History mirrors the persisted trip aggregate returned by /api/history.
type History struct {
	TotalSessions        int            `json:"totalSessions"`
	TotalArrivals        int            `json:"totalArrivals"`
	TotalCancels         int            `json:"totalCancels"`
	TotalReroutes        int            `json:"totalReroutes"`
	TotalFeedback        int            `json:"totalFeedback"`
	AbandonedSessions    int            `json:"abandonedSessions"`
	FeedbackPerType      map[string]int `json:"feedbackPerType"`
	SimulatedSessions    int            `json:"simulatedSessions"`
	DistanceCompletedM   int64          `json:"distanceCompletedMeters"`
	LongestTripM         int            `json:"longestTripMeters"`
	MaxReroutesInSession int            `json:"maxReroutesInSession"`
	LastUpdated          time.Time      `json:"lastUpdated"`
}

// Event is one telemetry event. Body keeps the raw JSON so the detail
// view can show every field the daemon sent.
type Event struct {
	Name string          `json:"name"`
	Body json.RawMessage `json:"event"`
}

// Summary holds the event fields the console displays directly.
type Summary struct {
	Created           string `json:"created"`
	SessionIdentifier string `json:"sessionIdentifier"`
	Simulation        bool   `json:"simulation"`
	DistanceCompleted int    `json:"distanceCompleted"`
	DistanceRemaining int    `json:"distanceRemaining"`
	DurationRemaining int    `json:"durationRemaining"`
	EstimatedDistance int    `json:"estimatedDistance"`
	RerouteCount      int    `json:"rerouteCount"`
	StepIndex         int    `json:"stepIndex"`
	StepCount         int    `json:"stepCount"`
	FeedbackType      string `json:"feedbackType,omitempty"`
}

// Summary decodes the displayed fields from the event body.
func (e Event) Summary() (Summary, error) {
	var s Summary
	if len(e.Body) == 0 {
		return s, nil
	}
	err := json.Unmarshal(e.Body, &s)
	return s, err
}

// Progress is the completed share of the route, 0..1. It reports false
// when the event carries no route distances.
func (s Summary) Progress() (float64, bool) {
	total := s.DistanceCompleted + s.DistanceRemaining
	if total <= 0 {
		return 0, false
	}
	return float64(s.DistanceCompleted) / float64(total), true
}

// --- WebSocket payload types ---

// SnapshotPayload is sent on connect and periodically after that.
type SnapshotPayload struct {
	Session Session `json:"session"`
	Stats   *Stats  `json:"stats,omitempty"`
	Recent  []Event `json:"recent"`
}

// EventsPayload is a batch of delivered events.
type EventsPayload struct {
	Events []Event `json:"events"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// --- HTTP request types ---

// Feedback is the body of POST /api/feedback.
type Feedback struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Source      string   `json:"source"`
	SubTypes    []string `json:"subTypes,omitempty"`
}

type feedbackResponse struct {
	Accepted bool `json:"accepted"`
}

type lifecycleRequest struct {
	Foreground *bool `json:"foreground,omitempty"`
	Portrait   *bool `json:"portrait,omitempty"`
}
