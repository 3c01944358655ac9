package telemetry

import (
	"sync"
	"sync/atomic"

	"github.com/nav-telemetry/backend/internal/navigation"
)

// Dispatcher is the observer registered with the navigation engine. It
// buffers raw locations for event context and forwards every other signal
// to the telemetry's processing goroutine through conflated channels, so a
// slow consumer only ever sees the latest value per signal.
type Dispatcher struct {
	mu           sync.Mutex // guards locations and accumulators
	locations    *RingBuffer
	accumulators *AccumulatorSet

	progress      *conflated[navigation.RouteProgress]
	routes        *conflated[routesUpdate]
	sessionStates *conflated[navigation.SessionState]

	offRoute       atomic.Bool
	pendingReroute atomic.Bool
	engineState    atomic.Int32
}

// routesUpdate is a route list tagged with the navigation state the engine
// was in when it delivered the list.
type routesUpdate struct {
	routes []navigation.Route
	state  navigation.SessionState
}

var _ navigation.Observer = (*Dispatcher)(nil)

func NewDispatcher(bufferSize int) *Dispatcher {
	return &Dispatcher{
		locations:     NewRingBuffer(bufferSize),
		accumulators:  NewAccumulatorSet(bufferSize),
		progress:      newConflated[navigation.RouteProgress](),
		routes:        newConflated[routesUpdate](),
		sessionStates: newConflated[navigation.SessionState](),
	}
}

func (d *Dispatcher) OnRawLocationChanged(loc navigation.Location) {
	d.mu.Lock()
	d.locations.Append(loc)
	done := d.accumulators.Feed(loc)
	d.mu.Unlock()

	done.run()
}

func (d *Dispatcher) OnRouteProgressChanged(progress navigation.RouteProgress) {
	d.progress.Offer(progress)
}

// OnRoutesChanged forwards a copy of routes together with the current
// engine state. An empty list is ignored.
func (d *Dispatcher) OnRoutesChanged(routes []navigation.Route) {
	if len(routes) == 0 {
		return
	}
	cp := make([]navigation.Route, len(routes))
	copy(cp, routes)
	d.routes.Offer(routesUpdate{routes: cp, state: d.EngineState()})
}

// OnOffRouteStateChanged latches a pending reroute on the false→true edge.
// The latch is set synchronously so a route list delivered after this call
// returns is always classified as a reroute.
func (d *Dispatcher) OnOffRouteStateChanged(offRoute bool) {
	prev := d.offRoute.Swap(offRoute)
	if offRoute && !prev {
		d.pendingReroute.Store(true)
	}
}

// OnNavigationSessionStateChanged records the engine state before handing it
// over, so routes delivered after this call are tagged with it.
func (d *Dispatcher) OnNavigationSessionStateChanged(state navigation.SessionState) {
	d.engineState.Store(int32(state))
	d.sessionStates.Offer(state)
}

// EngineState returns the last navigation state reported by the engine.
func (d *Dispatcher) EngineState() navigation.SessionState {
	return navigation.SessionState(d.engineState.Load())
}

// consumeReroute clears the pending reroute latch and reports whether it
// was set.
func (d *Dispatcher) consumeReroute() bool {
	return d.pendingReroute.CompareAndSwap(true, false)
}

// LastLocation returns the most recent raw location.
func (d *Dispatcher) LastLocation() (navigation.Location, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locations.Last()
}

// Locations returns a copy of the rolling location history.
func (d *Dispatcher) Locations() []navigation.Location {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locations.Snapshot()
}

// AccumulatePostEventLocations captures the current history as the
// pre-event window and calls onComplete once the post-event window is full
// or flushed. It returns immediately.
func (d *Dispatcher) AccumulatePostEventLocations(onComplete CompleteFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accumulators.Register(d.locations.Snapshot(), onComplete)
}

// FlushAccumulators completes every pending window with what it has.
func (d *Dispatcher) FlushAccumulators() int {
	d.mu.Lock()
	done := d.accumulators.FlushAll()
	d.mu.Unlock()

	done.run()
	return len(done)
}

// PendingAccumulators returns the number of live post-event windows.
func (d *Dispatcher) PendingAccumulators() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accumulators.Len()
}

// resetRouteProgress discards a progress update that has not been consumed.
func (d *Dispatcher) resetRouteProgress() {
	d.progress.Poll()
}
