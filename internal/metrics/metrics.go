// Package metrics is the hand-off point between the telemetry and whatever
// transports events off the process. Reporters are fire-and-forget: once an
// event is handed over, delivery is the reporter's concern.
package metrics

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is anything with a wire name.
type Event interface {
	EventName() string
}

// Reporter accepts events for delivery. AddEvent must not block for long and
// must be safe for concurrent use.
type Reporter interface {
	AddEvent(ev Event)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ev Event)

func (f ReporterFunc) AddEvent(ev Event) { f(ev) }

// Multi fans every event out to each reporter in order.
type Multi []Reporter

func (m Multi) AddEvent(ev Event) {
	for _, r := range m {
		r.AddEvent(ev)
	}
}

// LogReporter writes each event as a JSON line to the standard logger.
type LogReporter struct{}

func (LogReporter) AddEvent(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[metrics] marshal %s: %v", ev.EventName(), err)
		return
	}
	log.Printf("[metrics] %s %s", ev.EventName(), data)
}

// Recorder keeps every event in memory. Useful for tests and for the
// /api/stats endpoint in development.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) AddEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the wire names of the recorded events in arrival order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.EventName()
	}
	return out
}
