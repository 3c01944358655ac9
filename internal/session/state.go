package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/nav-telemetry/backend/internal/navigation"
)

// NewID returns a fresh opaque identifier for sessions and trips.
func NewID() string {
	return uuid.NewString()
}

// Session holds the per-guidance-episode values stamped onto every event.
// It is owned by the telemetry's processing goroutine; other goroutines
// only ever see copies made with Clone.
type Session struct {
	ID                      string                  `json:"id"`
	TripID                  string                  `json:"tripId"`
	State                   navigation.SessionState `json:"state"`
	Started                 bool                    `json:"started"`
	StartTime               time.Time               `json:"startTime"`
	ArrivalTime             *time.Time              `json:"arrivalTime,omitempty"`
	RerouteCount            int                     `json:"rerouteCount"`
	TimeOfReroute           time.Time               `json:"timeOfReroute"`
	SecondsSinceLastReroute int                     `json:"secondsSinceLastReroute"`
}

func New() *Session {
	return &Session{
		ID:        NewID(),
		TripID:    NewID(),
		StartTime: time.Now(),
	}
}

// Reset discards the current session values. The navigation state is kept
// because it describes the engine, not the session.
func (s *Session) Reset() {
	state := s.State
	*s = Session{
		ID:        NewID(),
		TripID:    NewID(),
		State:     state,
		StartTime: time.Now(),
	}
}

// Begin marks the session as started at now under a fresh identifier.
func (s *Session) Begin(now time.Time) {
	s.ID = NewID()
	s.StartTime = now
	s.Started = true
}

// RecordReroute bumps the reroute counter and measures the time since the
// previous reroute, or since the session started for the first one.
func (s *Session) RecordReroute(now time.Time) {
	since := s.TimeOfReroute
	if since.IsZero() {
		since = s.StartTime
	}
	s.SecondsSinceLastReroute = int(now.Sub(since) / time.Second)
	s.TimeOfReroute = now
	s.RerouteCount++
}

// RecordArrival stamps the arrival time and rolls the trip identifier.
func (s *Session) RecordArrival(now time.Time) {
	s.TripID = NewID()
	t := now
	s.ArrivalTime = &t
}

// Clone returns a deep copy of the session, duplicating pointer fields so the
// copy can be mutated independently of the original.
func (s *Session) Clone() Session {
	c := *s
	if s.ArrivalTime != nil {
		t := *s.ArrivalTime
		c.ArrivalTime = &t
	}
	return c
}
