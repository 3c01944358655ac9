package history

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nav-telemetry/backend/internal/event"
	"github.com/nav-telemetry/backend/internal/metrics"
)

const saveInterval = 30 * time.Second

// Tracker folds delivered events into the persistent aggregate. It is a
// metrics.Reporter: AddEvent never blocks, and events arriving while the
// queue is full are dropped.
type Tracker struct {
	persist *Store
	events  chan metrics.Event

	mu    sync.Mutex
	stats *Stats
	dirty bool

	// session id -> arrival seen
	open map[string]bool

	dropped atomic.Int64
}

var _ metrics.Reporter = (*Tracker)(nil)

// NewTracker loads the existing history from persist. The caller must run
// Run in a goroutine.
func NewTracker(persist *Store) (*Tracker, error) {
	stats, err := persist.Load()
	if err != nil {
		return nil, err
	}
	return &Tracker{
		persist: persist,
		stats:   stats,
		events:  make(chan metrics.Event, 256),
		open:    make(map[string]bool),
	}, nil
}

func (t *Tracker) AddEvent(ev metrics.Event) {
	select {
	case t.events <- ev:
	default:
		if n := t.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Printf("[history] queue full, %d events dropped", n)
		}
	}
}

// Run processes events and periodically saves dirty stats to disk.
// It blocks until ctx is cancelled, then drains the queue and performs a
// final save.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.drain()
			t.save()
			return
		case ev := <-t.events:
			t.processEvent(ev)
		case <-ticker.C:
			t.save()
		}
	}
}

func (t *Tracker) drain() {
	for {
		select {
		case ev := <-t.events:
			t.processEvent(ev)
		default:
			return
		}
	}
}

// Stats returns a deep copy of the current aggregate.
func (t *Tracker) Stats() *Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.clone()
}

func (t *Tracker) processEvent(ev metrics.Event) {
	nav, ok := ev.(event.Event)
	if !ok {
		return
	}
	b := nav.Common()

	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.stats

	switch e := nav.(type) {
	case *event.Depart:
		st.TotalSessions++
		if b.Profile != "" {
			st.SessionsPerProfile[b.Profile]++
		}
		if b.Simulation {
			st.SimulatedSessions++
		}
		t.open[b.SessionIdentifier] = false
	case *event.Arrive:
		st.TotalArrivals++
		t.open[b.SessionIdentifier] = true
		if b.DistanceCompleted > st.LongestTripM {
			st.LongestTripM = b.DistanceCompleted
		}
	case *event.Cancel:
		st.TotalCancels++
		arrived, known := t.open[b.SessionIdentifier]
		if known && !arrived && e.ArrivalTimestamp == "" {
			st.AbandonedSessions++
		}
		st.DistanceCompletedM += int64(b.DistanceCompleted)
		if b.RerouteCount > st.MaxReroutesInSession {
			st.MaxReroutesInSession = b.RerouteCount
		}
		delete(t.open, b.SessionIdentifier)
	case *event.Reroute:
		st.TotalReroutes++
	case *event.Feedback:
		st.TotalFeedback++
		st.FeedbackPerType[e.FeedbackType]++
	}
	t.dirty = true
}

func (t *Tracker) save() {
	t.mu.Lock()
	if !t.dirty {
		t.mu.Unlock()
		return
	}
	snapshot := t.stats.clone()
	t.dirty = false
	t.mu.Unlock()

	if err := t.persist.Save(snapshot); err != nil {
		log.Printf("[history] save failed: %v", err)
		t.mu.Lock()
		t.dirty = true
		t.mu.Unlock()
	}
}
