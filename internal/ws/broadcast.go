package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nav-telemetry/backend/internal/event"
	"github.com/nav-telemetry/backend/internal/metrics"
	"github.com/nav-telemetry/backend/internal/session"
	"github.com/nav-telemetry/backend/internal/telemetry"
)

// ErrTooManyConnections is returned by AddClient when the connection limit
// has been reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

// recentEvents is how many events a new client receives in its snapshot.
const recentEvents = 50

// StateSource provides the session view sent in snapshots.
type StateSource interface {
	CurrentSession() session.Session
	Stats() telemetry.Stats
}

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func newClient(conn *websocket.Conn, b *Broadcaster) *client {
	c := &client{
		conn: conn,
		b:    b,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans telemetry events out to live websocket clients. It is a
// metrics.Reporter: events are batched for the throttle interval and sent
// as one message. A periodic snapshot carries the current session.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	maxConns int

	throttle time.Duration
	seq      atomic.Uint64

	cfgMu   sync.RWMutex
	source  StateSource
	privacy *event.PrivacyFilter

	flushMu    sync.Mutex
	pending    []EventPayload
	recent     []EventPayload
	flushTimer *time.Timer

	snapshotTicker *time.Ticker
	stop           chan struct{}
	stopOnce       sync.Once

	slowDrops   atomic.Int64
	lastDropLog atomic.Int64
}

var _ metrics.Reporter = (*Broadcaster)(nil)

// NewBroadcaster starts a broadcaster. maxConns <= 0 means unlimited. source
// may be nil, in which case snapshots carry only recent events.
func NewBroadcaster(source StateSource, throttle, snapshotInterval time.Duration, maxConns int) *Broadcaster {
	b := &Broadcaster{
		clients:  make(map[*client]bool),
		maxConns: maxConns,
		source:   source,
		throttle: throttle,
		privacy:  &event.PrivacyFilter{},
		stop:     make(chan struct{}),
	}

	b.snapshotTicker = time.NewTicker(snapshotInterval)
	go b.snapshotLoop()

	return b
}

// SetPrivacyFilter replaces the filter applied to outgoing events. Safe to
// call while clients are connected.
func (b *Broadcaster) SetPrivacyFilter(f *event.PrivacyFilter) {
	if f == nil {
		f = &event.PrivacyFilter{}
	}
	b.cfgMu.Lock()
	b.privacy = f
	b.cfgMu.Unlock()
}

func (b *Broadcaster) privacyFilter() *event.PrivacyFilter {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return b.privacy
}

// SetSource sets the session view used in snapshots, for when the source
// is built after the broadcaster.
func (b *Broadcaster) SetSource(source StateSource) {
	b.cfgMu.Lock()
	b.source = source
	b.cfgMu.Unlock()
}

func (b *Broadcaster) stateSource() StateSource {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return b.source
}

// FilterEvent applies the privacy filter to navigation events. Other events
// pass through unchanged.
func (b *Broadcaster) FilterEvent(ev metrics.Event) metrics.Event {
	nav, ok := ev.(event.Event)
	if !ok {
		return ev
	}
	return b.privacyFilter().Apply(nav)
}

// FilterSession masks the identifiers of s when the filter asks for it.
func (b *Broadcaster) FilterSession(s session.Session) session.Session {
	f := b.privacyFilter()
	s.ID = f.MaskID(s.ID)
	s.TripID = f.MaskID(s.TripID)
	return s
}

func (b *Broadcaster) AddEvent(ev metrics.Event) {
	p := EventPayload{Name: ev.EventName(), Event: b.FilterEvent(ev)}

	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.pending = append(b.pending, p)
	b.recent = append(b.recent, p)
	if len(b.recent) > recentEvents {
		b.recent = b.recent[len(b.recent)-recentEvents:]
	}

	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flush)
	}
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	data, err := b.marshal(MsgSnapshot, b.snapshot())
	if err != nil {
		log.Printf("[ws] snapshot marshal error: %v", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		return nil, ErrTooManyConnections
	}
	c := newClient(conn, b)
	b.clients[c] = true

	if data != nil {
		// Fresh channel, cannot be full.
		c.send <- data
	}
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Stop halts the snapshot loop and disconnects every client.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		b.snapshotTicker.Stop()

		b.flushMu.Lock()
		if b.flushTimer != nil {
			b.flushTimer.Stop()
			b.flushTimer = nil
		}
		b.flushMu.Unlock()

		b.mu.Lock()
		for c := range b.clients {
			delete(b.clients, c)
			c.close()
		}
		b.mu.Unlock()
	})
}

func (b *Broadcaster) flush() {
	b.flushMu.Lock()
	events := b.pending
	b.pending = nil
	b.flushTimer = nil
	b.flushMu.Unlock()

	if len(events) == 0 {
		return
	}
	b.broadcast(MsgEvents, EventsPayload{Events: events})
}

func (b *Broadcaster) snapshot() SnapshotPayload {
	b.flushMu.Lock()
	recent := make([]EventPayload, len(b.recent))
	copy(recent, b.recent)
	b.flushMu.Unlock()

	p := SnapshotPayload{Recent: recent}
	if src := b.stateSource(); src != nil {
		p.Session = b.FilterSession(src.CurrentSession())
		stats := src.Stats()
		stats.Session = b.privacyFilter().MaskID(stats.Session)
		p.Stats = &stats
	}
	return p
}

func (b *Broadcaster) snapshotLoop() {
	for {
		select {
		case <-b.stop:
			return
		case <-b.snapshotTicker.C:
			if b.ClientCount() == 0 {
				continue
			}
			b.broadcast(MsgSnapshot, b.snapshot())
		}
	}
}

func (b *Broadcaster) marshal(t MessageType, payload interface{}) ([]byte, error) {
	return json.Marshal(WSMessage{Type: t, Seq: b.seq.Add(1), Payload: payload})
}

func (b *Broadcaster) broadcast(t MessageType, payload interface{}) {
	data, err := b.marshal(t, payload)
	if err != nil {
		log.Printf("[ws] broadcast marshal error: %v", err)
		return
	}

	// Sends happen under the read lock so RemoveClient cannot close a
	// channel mid-send.
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	// Clients that can't keep up are disconnected.
	for _, c := range slow {
		b.logSlowDrop()
		b.RemoveClient(c)
	}
}

// logSlowDrop logs slow-client disconnects at most every 10 seconds.
func (b *Broadcaster) logSlowDrop() {
	n := b.slowDrops.Add(1)
	now := time.Now().UnixNano()
	last := b.lastDropLog.Load()
	if now-last < int64(10*time.Second) || !b.lastDropLog.CompareAndSwap(last, now) {
		return
	}
	log.Printf("[ws] disconnected slow clients (total %d)", n)
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
