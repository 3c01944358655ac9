package telemetry

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nav-telemetry/backend/internal/device"
	"github.com/nav-telemetry/backend/internal/event"
	"github.com/nav-telemetry/backend/internal/geo"
	"github.com/nav-telemetry/backend/internal/metrics"
	"github.com/nav-telemetry/backend/internal/navigation"
)

var (
	routeA = navigation.Route{
		RequestID: "route-a",
		Profile:   "driving",
		Distance:  1200,
		Duration:  180,
		Geometry:  []geo.Point{{Lat: 52.50, Lng: 13.40}, {Lat: 52.51, Lng: 13.41}},
		Legs:      []navigation.Leg{{Steps: []navigation.Step{{}, {}, {}}}},
	}
	routeB = navigation.Route{
		RequestID: "route-b",
		Profile:   "driving",
		Distance:  1500,
		Duration:  240,
		Geometry:  []geo.Point{{Lat: 52.50, Lng: 13.40}, {Lat: 52.52, Lng: 13.43}},
		Legs:      []navigation.Leg{{Steps: []navigation.Step{{}, {}}}},
	}
)

type harness struct {
	tel    *Telemetry
	d      *Dispatcher
	rec    *metrics.Recorder
	cancel context.CancelFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := &metrics.Recorder{}
	tel := New(Options{
		SDKIdentifier:  "nav-test",
		LocationEngine: "gps",
		Reporter:       rec,
		Device:         device.Static{OperatingSystem: "linux", BatteryLevel: -1},
	})
	ctx, cancel := context.WithCancel(context.Background())
	go tel.Start(ctx)
	t.Cleanup(func() {
		cancel()
		tel.Wait(2 * time.Second)
	})
	return &harness{tel: tel, d: tel.Dispatcher(), rec: rec, cancel: cancel}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (h *harness) setState(t *testing.T, state navigation.SessionState) {
	t.Helper()
	h.d.OnNavigationSessionStateChanged(state)
	waitFor(t, "session state "+state.String(), func() bool {
		return h.tel.CurrentSession().State == state
	})
}

// startSession drives the engine into active guidance on route and waits for
// the depart event.
func (h *harness) startSession(t *testing.T, route navigation.Route) string {
	t.Helper()
	h.setState(t, navigation.ActiveGuidance)
	h.d.OnRoutesChanged([]navigation.Route{route})
	waitFor(t, "session start", func() bool {
		return h.tel.CurrentSession().Started
	})
	return h.tel.CurrentSession().ID
}

func (h *harness) feedLocations(n int) {
	for i := 0; i < n; i++ {
		h.d.OnRawLocationChanged(navigation.Location{
			Latitude:  52.50 + float64(i)*0.0001,
			Longitude: 13.40,
			Time:      time.Now(),
		})
	}
}

// drainProgress waits until the processing goroutine has taken the pending
// progress update off the channel.
func (h *harness) drainProgress(t *testing.T) {
	t.Helper()
	waitFor(t, "progress consumed", func() bool {
		return len(h.d.progress.ch) == 0
	})
}

func assertNames(t *testing.T, rec *metrics.Recorder, want ...string) {
	t.Helper()
	got := rec.Names()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
}

func TestSessionStart_WaitsForOriginalRoute(t *testing.T) {
	h := newHarness(t)
	h.setState(t, navigation.ActiveGuidance)

	time.Sleep(50 * time.Millisecond)
	assertNames(t, h.rec)
	if h.tel.CurrentSession().Started {
		t.Fatal("session started without an original route")
	}

	h.d.OnRoutesChanged([]navigation.Route{routeA})
	waitFor(t, "depart", func() bool { return len(h.rec.Names()) == 1 })
	assertNames(t, h.rec, event.NameDepart)

	depart := h.rec.Events()[0].(*event.Depart)
	if depart.OriginalRequestIdentifier != routeA.RequestID {
		t.Errorf("expected original route %s, got %s", routeA.RequestID, depart.OriginalRequestIdentifier)
	}
	if depart.SessionIdentifier != h.tel.CurrentSession().ID {
		t.Errorf("depart carries session %s, current is %s", depart.SessionIdentifier, h.tel.CurrentSession().ID)
	}
	if depart.TotalStepCount != 3 || depart.EstimatedDistance != 1200 {
		t.Errorf("depart not populated from route: steps %d distance %d", depart.TotalStepCount, depart.EstimatedDistance)
	}
	if s := h.tel.Stats(); s.Dropped != 0 {
		t.Errorf("expected no dropped events, got %d", s.Dropped)
	}
}

func TestSessionStart_RouteBeforeGuidance(t *testing.T) {
	h := newHarness(t)
	h.d.OnRoutesChanged([]navigation.Route{routeA})
	// The route is taken as the original while idle; give the loop a moment.
	waitFor(t, "route consumed", func() bool { return len(h.d.routes.ch) == 0 })
	time.Sleep(20 * time.Millisecond)

	h.d.OnNavigationSessionStateChanged(navigation.ActiveGuidance)
	waitFor(t, "depart", func() bool { return len(h.rec.Names()) == 1 })
	assertNames(t, h.rec, event.NameDepart)
}

func TestReroute_KeepsSession(t *testing.T) {
	h := newHarness(t)
	id := h.startSession(t, routeA)

	h.d.OnOffRouteStateChanged(true)
	h.d.OnRoutesChanged([]navigation.Route{routeB})
	waitFor(t, "reroute recorded", func() bool {
		return h.tel.CurrentSession().RerouteCount == 1
	})

	if h.d.pendingReroute.Load() {
		t.Error("pending reroute not cleared")
	}
	if got := h.tel.CurrentSession().ID; got != id {
		t.Errorf("reroute reset the session: %s -> %s", id, got)
	}

	// The reroute event waits for its post-event window.
	assertNames(t, h.rec, event.NameDepart)
	h.feedLocations(LocationBufferMaxSize)
	waitFor(t, "reroute event", func() bool { return len(h.rec.Names()) == 2 })
	assertNames(t, h.rec, event.NameDepart, event.NameReroute)

	rr := h.rec.Events()[1].(*event.Reroute)
	if rr.RerouteCount != 1 {
		t.Errorf("expected reroute count 1, got %d", rr.RerouteCount)
	}
	if rr.NewDistanceRemaining != 1500 || rr.NewDurationRemaining != 240 {
		t.Errorf("new route not recorded: %d m %d s", rr.NewDistanceRemaining, rr.NewDurationRemaining)
	}
	if len(rr.LocationsAfter) != LocationBufferMaxSize {
		t.Errorf("expected %d post-event locations, got %d", LocationBufferMaxSize, len(rr.LocationsAfter))
	}
	if rr.LocationsBefore == nil {
		t.Error("pre-event locations should be an empty list, not nil")
	}
	if rr.SessionIdentifier != id {
		t.Errorf("reroute carries session %s, expected %s", rr.SessionIdentifier, id)
	}
}

func TestExternalRoute_RestartsSession(t *testing.T) {
	h := newHarness(t)
	oldID := h.startSession(t, routeA)

	h.d.OnRoutesChanged([]navigation.Route{routeB})
	waitFor(t, "restart", func() bool { return len(h.rec.Names()) == 3 })
	assertNames(t, h.rec, event.NameDepart, event.NameCancel, event.NameDepart)

	evs := h.rec.Events()
	cancel := evs[1].(*event.Cancel)
	depart := evs[2].(*event.Depart)
	if cancel.SessionIdentifier != oldID {
		t.Errorf("cancel should close session %s, got %s", oldID, cancel.SessionIdentifier)
	}
	if depart.SessionIdentifier == oldID {
		t.Error("restarted session kept the old id")
	}
	if depart.OriginalRequestIdentifier != routeB.RequestID {
		t.Errorf("expected new original route %s, got %s", routeB.RequestID, depart.OriginalRequestIdentifier)
	}
	if s := h.tel.CurrentSession(); s.RerouteCount != 0 || !s.Started {
		t.Errorf("unexpected session after restart: %+v", s)
	}
}

// stepState and stepRoutes run one loop iteration by hand, so a test can
// pick the order in which pending signals are taken off their channels.
func stepState(t *testing.T, tel *Telemetry) {
	t.Helper()
	state, ok := tel.dispatcher.sessionStates.Poll()
	if !ok {
		t.Fatal("no pending session state")
	}
	tel.handleSessionState(context.Background(), state)
}

func stepRoutes(t *testing.T, tel *Telemetry) {
	t.Helper()
	u, ok := tel.dispatcher.routes.Poll()
	if !ok {
		t.Fatal("no pending routes")
	}
	tel.handleRoutes(context.Background(), u)
	if tel.startPending != nil {
		select {
		case <-tel.startPending:
			tel.completeSessionStart(context.Background())
		default:
		}
	}
}

func TestRoutesAfterLeavingGuidance_NoRestart(t *testing.T) {
	rec := &metrics.Recorder{}
	tel := New(Options{Reporter: rec})
	d := tel.Dispatcher()

	d.OnNavigationSessionStateChanged(navigation.ActiveGuidance)
	stepState(t, tel)
	d.OnRoutesChanged([]navigation.Route{routeA})
	stepRoutes(t, tel)
	assertNames(t, rec, event.NameDepart)

	// The engine leaves guidance and prepares the next route before the
	// state change has been processed.
	d.OnNavigationSessionStateChanged(navigation.FreeDrive)
	d.OnRoutesChanged([]navigation.Route{routeB})
	stepRoutes(t, tel)

	assertNames(t, rec, event.NameDepart, event.NameCancel)
	if _, ok := d.sessionStates.Poll(); ok {
		t.Error("state change left on the channel after routes were classified")
	}
	if s := tel.CurrentSession(); s.Started || s.State != navigation.FreeDrive {
		t.Errorf("expected a stopped free drive session, got %+v", s)
	}
	if r, ok := tel.original.Get(); !ok || r.RequestID != routeB.RequestID {
		t.Errorf("expected %s kept as the next original route, got %+v", routeB.RequestID, r)
	}

	d.OnNavigationSessionStateChanged(navigation.ActiveGuidance)
	stepState(t, tel)
	assertNames(t, rec, event.NameDepart, event.NameCancel, event.NameDepart)
	if depart := rec.Events()[2].(*event.Depart); depart.OriginalRequestIdentifier != routeB.RequestID {
		t.Errorf("expected next session on %s, got %s", routeB.RequestID, depart.OriginalRequestIdentifier)
	}
}

func TestPendingStart_CancelledLeavesSessionStopped(t *testing.T) {
	h := newHarness(t)
	h.setState(t, navigation.ActiveGuidance)

	h.cancel()
	h.tel.Wait(2 * time.Second)

	assertNames(t, h.rec)
	if h.tel.CurrentSession().Started {
		t.Error("cancelled start left the session marked as started")
	}
	if s := h.tel.Stats(); s.Started {
		t.Error("stats report a started session after a cancelled start")
	}
}

func TestPendingStart_LeaveAndResumeGuidance(t *testing.T) {
	h := newHarness(t)
	h.setState(t, navigation.ActiveGuidance)
	h.setState(t, navigation.FreeDrive)
	time.Sleep(20 * time.Millisecond)
	assertNames(t, h.rec)

	h.setState(t, navigation.ActiveGuidance)
	h.d.OnRoutesChanged([]navigation.Route{routeA})
	waitFor(t, "depart", func() bool { return len(h.rec.Names()) == 1 })

	time.Sleep(30 * time.Millisecond)
	assertNames(t, h.rec, event.NameDepart)
	if !h.tel.CurrentSession().Started {
		t.Error("session not started after the route resolved")
	}
}

func TestArrival_OncePerSession(t *testing.T) {
	h := newHarness(t)
	h.startSession(t, routeA)

	done := navigation.RouteProgress{Route: routeA, State: navigation.RouteComplete}
	h.d.OnRouteProgressChanged(done)
	waitFor(t, "arrive", func() bool { return len(h.rec.Names()) == 2 })

	h.d.OnRouteProgressChanged(done)
	h.drainProgress(t)
	h.d.OnRouteProgressChanged(done)
	h.drainProgress(t)

	h.d.OnNavigationSessionStateChanged(navigation.FreeDrive)
	waitFor(t, "cancel", func() bool { return len(h.rec.Names()) == 3 })
	assertNames(t, h.rec, event.NameDepart, event.NameArrive, event.NameCancel)

	cancel := h.rec.Events()[2].(*event.Cancel)
	if cancel.ArrivalTimestamp == "" {
		t.Error("cancel after arrival should carry the arrival timestamp")
	}
	if h.tel.CurrentSession().Started {
		t.Error("session still started after leaving guidance")
	}
}

func TestStop_NeverStartedIsSilent(t *testing.T) {
	h := newHarness(t)
	h.setState(t, navigation.ActiveGuidance)
	h.setState(t, navigation.Idle)
	h.setState(t, navigation.FreeDrive)
	time.Sleep(30 * time.Millisecond)
	assertNames(t, h.rec)

	// A route resolved while idle starts the next guidance session at once.
	h.d.OnRoutesChanged([]navigation.Route{routeA})
	waitFor(t, "route consumed", func() bool { return len(h.d.routes.ch) == 0 })
	time.Sleep(20 * time.Millisecond)
	assertNames(t, h.rec)

	h.d.OnNavigationSessionStateChanged(navigation.ActiveGuidance)
	waitFor(t, "depart", func() bool { return len(h.rec.Names()) == 1 })
	assertNames(t, h.rec, event.NameDepart)
}

func TestFeedback_NoSession(t *testing.T) {
	h := newHarness(t)

	ok, err := h.tel.PostUserFeedback(context.Background(), Feedback{Type: event.FeedbackGeneral})
	if err != nil {
		t.Fatalf("PostUserFeedback: %v", err)
	}
	if ok {
		t.Error("feedback accepted without a session")
	}
	h.feedLocations(LocationBufferMaxSize)
	assertNames(t, h.rec)
}

func TestFeedback_DeliveredAfterWindow(t *testing.T) {
	h := newHarness(t)
	h.startSession(t, routeA)
	h.feedLocations(5)

	ok, err := h.tel.PostUserFeedback(context.Background(), Feedback{
		Type:        event.FeedbackRoadClosed,
		Description: "closed for works",
	})
	if err != nil || !ok {
		t.Fatalf("PostUserFeedback: ok=%v err=%v", ok, err)
	}
	assertNames(t, h.rec, event.NameDepart)

	h.feedLocations(LocationBufferMaxSize)
	waitFor(t, "feedback", func() bool { return len(h.rec.Names()) == 2 })

	fb := h.rec.Events()[1].(*event.Feedback)
	if fb.Source != event.SourceUser {
		t.Errorf("expected default source %q, got %q", event.SourceUser, fb.Source)
	}
	if fb.FeedbackID == "" {
		t.Error("feedback id not assigned")
	}
	if len(fb.LocationsBefore) != 5 || len(fb.LocationsAfter) != LocationBufferMaxSize {
		t.Errorf("unexpected windows: %d before, %d after", len(fb.LocationsBefore), len(fb.LocationsAfter))
	}
}

func TestFeedback_FlushedOnSessionStop(t *testing.T) {
	h := newHarness(t)
	h.startSession(t, routeA)

	if ok, err := h.tel.PostUserFeedback(context.Background(), Feedback{Type: event.FeedbackGeneral}); !ok || err != nil {
		t.Fatalf("PostUserFeedback: ok=%v err=%v", ok, err)
	}
	h.feedLocations(3)
	h.d.OnNavigationSessionStateChanged(navigation.Idle)

	waitFor(t, "cancel", func() bool { return len(h.rec.Names()) == 3 })
	assertNames(t, h.rec, event.NameDepart, event.NameFeedback, event.NameCancel)
	if fb := h.rec.Events()[1].(*event.Feedback); len(fb.LocationsAfter) != 3 {
		t.Errorf("expected partial window of 3, got %d", len(fb.LocationsAfter))
	}
}

func TestShutdown_CancelsStartedSession(t *testing.T) {
	h := newHarness(t)
	h.startSession(t, routeA)

	h.cancel()
	h.tel.Wait(2 * time.Second)
	assertNames(t, h.rec, event.NameDepart, event.NameCancel)

	_, err := h.tel.PostUserFeedback(context.Background(), Feedback{})
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning after shutdown, got %v", err)
	}
}

func TestSendEvent_Gate(t *testing.T) {
	rec := &metrics.Recorder{}
	tel := New(Options{Reporter: rec})

	tel.sendEvent(&event.Depart{})
	tel.started.Store(true)
	tel.sendEvent(&event.Arrive{})
	tel.sessionRoute.Store(&routeA)
	tel.sendEvent(&event.Cancel{})

	assertNames(t, rec, event.NameCancel)
	s := tel.Stats()
	if s.Sent != 1 || s.Dropped != 2 {
		t.Fatalf("expected 1 sent 2 dropped, got %d sent %d dropped", s.Sent, s.Dropped)
	}
	if s.DroppedBy[DropSessionStopped] != 1 || s.DroppedBy[DropNoRoute] != 1 {
		t.Errorf("unexpected drop reasons %v", s.DroppedBy)
	}
	if s.LastDropReason != DropNoRoute || s.LastDropEvent != event.NameArrive {
		t.Errorf("unexpected last drop %q for %q", s.LastDropReason, s.LastDropEvent)
	}
}

func TestPopulate_Defaults(t *testing.T) {
	tel := New(Options{LocationEngine: ReplayLocationEngine})
	ev := &event.Arrive{}
	tel.populate(context.Background(), ev, nil)

	if ev.Event != event.NameArrive || ev.Version != event.Version {
		t.Errorf("header not set: %q v%d", ev.Event, ev.Version)
	}
	if ev.Lat != 0 || ev.Lng != 0 {
		t.Errorf("expected 0,0 without a location, got %v,%v", ev.Lat, ev.Lng)
	}
	if ev.PercentTimeInPortrait != 100 || ev.PercentTimeInForeground != 100 {
		t.Errorf("expected 100%% defaults, got %d/%d", ev.PercentTimeInPortrait, ev.PercentTimeInForeground)
	}
	if ev.DistanceRemaining != 0 || ev.OriginalStepCount != 0 || ev.AbsoluteDistanceToDestination != 0 {
		t.Errorf("expected zero route values, got %+v", ev.Base)
	}
	if !ev.Simulation {
		t.Error("replay engine should flag the event as a simulation")
	}
}

func TestPopulate_FromContext(t *testing.T) {
	clk := &fakeClock{t: time.Unix(2000, 0)}
	lc := newLifecycleTracker(clk.now)
	tel := New(Options{Lifecycle: lc, LocationEngine: "gps", SDKIdentifier: "nav-test"})

	clk.advance(10 * time.Second)
	lc.SetForeground(false)
	clk.advance(10 * time.Second)

	tel.original = ResolvedOriginalRoute(routeA)
	tel.progress = &navigation.RouteProgress{
		Route:             routeB,
		DistanceRemaining: 800.7,
		DurationRemaining: 90,
		DistanceTraveled:  700,
		StepIndex:         1,
	}
	tel.session.RerouteCount = 2
	tel.Dispatcher().OnRawLocationChanged(navigation.Location{Latitude: 52.50, Longitude: 13.40})

	ev := &event.Reroute{}
	tel.populate(context.Background(), ev, nil)

	if ev.RequestIdentifier != routeB.RequestID || ev.OriginalRequestIdentifier != routeA.RequestID {
		t.Errorf("route ids: got %s / %s", ev.RequestIdentifier, ev.OriginalRequestIdentifier)
	}
	if ev.DistanceRemaining != 800 || ev.DistanceCompleted != 700 || ev.StepIndex != 1 {
		t.Errorf("progress values not copied: %+v", ev.Base)
	}
	if ev.OriginalStepCount != 3 || ev.StepCount != 2 || ev.TotalStepCount != 2 {
		t.Errorf("step counts: original %d step %d total %d", ev.OriginalStepCount, ev.StepCount, ev.TotalStepCount)
	}
	want := int(geo.DistanceMeters(geo.Point{Lat: 52.50, Lng: 13.40}, routeB.Geometry[1]))
	if ev.AbsoluteDistanceToDestination != want {
		t.Errorf("expected absolute distance %d, got %d", want, ev.AbsoluteDistanceToDestination)
	}
	if ev.Lat != 52.50 || ev.Lng != 13.40 {
		t.Errorf("expected last location, got %v,%v", ev.Lat, ev.Lng)
	}
	if ev.PercentTimeInForeground != 50 || ev.PercentTimeInPortrait != 100 {
		t.Errorf("lifecycle percentages: %d/%d", ev.PercentTimeInForeground, ev.PercentTimeInPortrait)
	}
	if ev.RerouteCount != 2 || ev.SDKIdentifier != "nav-test" || ev.Simulation {
		t.Errorf("session values: %+v", ev.Base)
	}
	if ev.Phone.OperatingSystem != "unknown" {
		t.Errorf("expected default device state, got %+v", ev.Phone)
	}
}

type fakeNavigator struct {
	mu        sync.Mutex
	locations map[navigation.LocationObserver]bool
	progress  map[navigation.RouteProgressObserver]bool
	routes    map[navigation.RoutesObserver]bool
	offRoute  map[navigation.OffRouteObserver]bool
	sessions  map[navigation.SessionObserver]bool
}

func newFakeNavigator() *fakeNavigator {
	return &fakeNavigator{
		locations: make(map[navigation.LocationObserver]bool),
		progress:  make(map[navigation.RouteProgressObserver]bool),
		routes:    make(map[navigation.RoutesObserver]bool),
		offRoute:  make(map[navigation.OffRouteObserver]bool),
		sessions:  make(map[navigation.SessionObserver]bool),
	}
}

func (n *fakeNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.locations) + len(n.progress) + len(n.routes) + len(n.offRoute) + len(n.sessions)
}

func (n *fakeNavigator) RegisterLocationObserver(o navigation.LocationObserver) {
	n.mu.Lock()
	n.locations[o] = true
	n.mu.Unlock()
}
func (n *fakeNavigator) UnregisterLocationObserver(o navigation.LocationObserver) {
	n.mu.Lock()
	delete(n.locations, o)
	n.mu.Unlock()
}
func (n *fakeNavigator) RegisterRouteProgressObserver(o navigation.RouteProgressObserver) {
	n.mu.Lock()
	n.progress[o] = true
	n.mu.Unlock()
}
func (n *fakeNavigator) UnregisterRouteProgressObserver(o navigation.RouteProgressObserver) {
	n.mu.Lock()
	delete(n.progress, o)
	n.mu.Unlock()
}
func (n *fakeNavigator) RegisterRoutesObserver(o navigation.RoutesObserver) {
	n.mu.Lock()
	n.routes[o] = true
	n.mu.Unlock()
}
func (n *fakeNavigator) UnregisterRoutesObserver(o navigation.RoutesObserver) {
	n.mu.Lock()
	delete(n.routes, o)
	n.mu.Unlock()
}
func (n *fakeNavigator) RegisterOffRouteObserver(o navigation.OffRouteObserver) {
	n.mu.Lock()
	n.offRoute[o] = true
	n.mu.Unlock()
}
func (n *fakeNavigator) UnregisterOffRouteObserver(o navigation.OffRouteObserver) {
	n.mu.Lock()
	delete(n.offRoute, o)
	n.mu.Unlock()
}
func (n *fakeNavigator) RegisterSessionObserver(o navigation.SessionObserver) {
	n.mu.Lock()
	n.sessions[o] = true
	n.mu.Unlock()
}
func (n *fakeNavigator) UnregisterSessionObserver(o navigation.SessionObserver) {
	n.mu.Lock()
	delete(n.sessions, o)
	n.mu.Unlock()
}

func TestInitialize_Idempotent(t *testing.T) {
	rec := &metrics.Recorder{}
	tel := New(Options{Reporter: rec, SDKIdentifier: "nav-test", SDKVersion: "1.0.0"})
	nav := newFakeNavigator()

	tel.Initialize(nav)
	tel.Initialize(nav)

	if got := nav.count(); got != 5 {
		t.Errorf("expected 5 registrations, got %d", got)
	}
	assertNames(t, rec, event.NameTurnstile)
	ts := rec.Events()[0].(*event.Turnstile)
	if ts.SDKVersion != "1.0.0" || ts.UserID == "" || !ts.Enabled {
		t.Errorf("unexpected turnstile %+v", ts)
	}

	tel.Unregister(nav)
	if got := nav.count(); got != 0 {
		t.Errorf("expected all observers removed, got %d", got)
	}
	tel.Unregister(nav)
}
