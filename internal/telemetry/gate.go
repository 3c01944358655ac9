package telemetry

import (
	"sync"
	"sync/atomic"

	"github.com/nav-telemetry/backend/internal/event"
)

// DropReason explains why an event was not delivered.
type DropReason string

const (
	DropNone           DropReason = ""
	DropSessionStopped DropReason = "navigation session not started"
	DropNoRoute        DropReason = "original route not resolved"
)

// Stats are the dispatch gate counters.
type Stats struct {
	Sent           int64                `json:"sent"`
	Dropped        int64                `json:"dropped"`
	DroppedBy      map[DropReason]int64 `json:"droppedBy"`
	SentBy         map[string]int64     `json:"sentBy"`
	LastDropReason DropReason           `json:"lastDropReason,omitempty"`
	LastDropEvent  string               `json:"lastDropEvent,omitempty"`
	Session        string               `json:"session"`
	Started        bool                 `json:"started"`
	Pending        int                  `json:"pendingPostEventWindows"`
}

type gateStats struct {
	sent    atomic.Int64
	dropped atomic.Int64

	mu        sync.Mutex
	sentBy    map[string]int64
	droppedBy map[DropReason]int64
	lastDrop  DropReason
	lastEvent string
}

func (g *gateStats) recordSent(name string) {
	g.sent.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sentBy == nil {
		g.sentBy = make(map[string]int64)
	}
	g.sentBy[name]++
}

func (g *gateStats) recordDrop(name string, reason DropReason) {
	g.dropped.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.droppedBy == nil {
		g.droppedBy = make(map[DropReason]int64)
	}
	g.droppedBy[reason]++
	g.lastDrop = reason
	g.lastEvent = name
}

// eligibility returns why events may not be delivered right now, or
// DropNone when they may. Safe to call from any goroutine.
func (t *Telemetry) eligibility() DropReason {
	if !t.started.Load() {
		return DropSessionStopped
	}
	if t.sessionRoute.Load() == nil {
		return DropNoRoute
	}
	return DropNone
}

// sendEvent hands ev to the reporter if a guided session is in progress.
// Ineligible events are dropped, not queued. It may be called from the
// location goroutine when a post-event window completes.
func (t *Telemetry) sendEvent(ev event.Event) {
	name := ev.EventName()
	if reason := t.eligibility(); reason != DropNone {
		t.gate.recordDrop(name, reason)
		t.debugf("%s not sent. Caused by: %s", name, reason)
		return
	}
	t.gate.recordSent(name)
	t.debugf("%s event sent", name)
	t.reporter.AddEvent(ev)
}

// Stats returns a snapshot of the gate counters.
func (t *Telemetry) Stats() Stats {
	s := Stats{
		Sent:      t.gate.sent.Load(),
		Dropped:   t.gate.dropped.Load(),
		DroppedBy: make(map[DropReason]int64),
		SentBy:    make(map[string]int64),
		Session:   t.current.Load().ID,
		Started:   t.started.Load(),
		Pending:   t.dispatcher.PendingAccumulators(),
	}
	t.gate.mu.Lock()
	defer t.gate.mu.Unlock()
	for k, v := range t.gate.droppedBy {
		s.DroppedBy[k] = v
	}
	for k, v := range t.gate.sentBy {
		s.SentBy[k] = v
	}
	s.LastDropReason = t.gate.lastDrop
	s.LastDropEvent = t.gate.lastEvent
	return s
}
