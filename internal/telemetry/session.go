package telemetry

import (
	"context"
	"log"

	"github.com/nav-telemetry/backend/internal/event"
	"github.com/nav-telemetry/backend/internal/navigation"
	"github.com/nav-telemetry/backend/internal/session"
)

func (t *Telemetry) handleSessionState(ctx context.Context, state navigation.SessionState) {
	t.debugf("navigation state is %s", state)
	prev := t.session.State
	t.session.State = state
	t.publish()

	if state == navigation.ActiveGuidance {
		if prev != navigation.ActiveGuidance {
			t.sessionStart(ctx)
		}
		return
	}

	t.startPending = nil
	if t.session.Started {
		t.sessionStop(ctx)
	}
	t.stopProgressMonitoring()
}

// sessionStart prepares a new session and completes it as soon as the
// original route is known, which may be immediately.
func (t *Telemetry) sessionStart(ctx context.Context) {
	t.debugf("sessionStart")
	t.dispatcher.FlushAccumulators()
	t.resetRouteProgress()

	if t.original.IsResolved() {
		t.completeSessionStart(ctx)
		return
	}
	t.startPending = t.original.Done()
}

func (t *Telemetry) completeSessionStart(ctx context.Context) {
	t.startPending = nil
	route, ok := t.original.Get()
	if !ok {
		return
	}

	t.session.Begin(t.opts.Now())
	t.sessionRoute.Store(&route)
	t.started.Store(true)
	t.publish()
	log.Printf("[telemetry] session %s started", t.session.ID)

	depart := &event.Depart{}
	t.populate(ctx, depart, &route)
	t.sendEvent(depart)

	t.stopProgressMonitoring()
	t.startProgressMonitoring()
}

// sessionStop ends a started session: pending post-event windows are
// flushed while the session is still eligible, then the cancel event is
// sent and every session value is reset.
func (t *Telemetry) sessionStop(ctx context.Context) {
	t.debugf("sessionStop")
	if !t.session.Started {
		return
	}
	if n := t.dispatcher.FlushAccumulators(); n > 0 {
		t.debugf("flushed %d pending post-event windows", n)
	}

	cancel := &event.Cancel{}
	if t.session.ArrivalTime != nil {
		cancel.ArrivalTimestamp = event.FormatTime(*t.session.ArrivalTime)
	}
	t.populate(ctx, cancel, nil)
	t.sendEvent(cancel)
	log.Printf("[telemetry] session %s stopped", t.session.ID)

	t.session.Reset()
	t.started.Store(false)
	t.sessionRoute.Store(nil)
	t.original = NewOriginalRoute()
	t.publish()
	t.stopProgressMonitoring()
}

// handleRoutes classifies a new route list. Only the first route matters.
// The list is classified against the engine state it was delivered in: a
// state change still waiting on its channel is applied first.
func (t *Telemetry) handleRoutes(ctx context.Context, u routesUpdate) {
	t.debugf("routes changed, %d routes in %s", len(u.routes), u.state)
	if len(u.routes) == 0 {
		return
	}
	route := u.routes[0]

	if u.state != t.session.State {
		if state, ok := t.dispatcher.sessionStates.Poll(); ok {
			t.handleSessionState(ctx, state)
		}
	}

	if u.state != navigation.ActiveGuidance || t.session.State != navigation.ActiveGuidance {
		t.original = ResolvedOriginalRoute(route)
		return
	}
	if !t.original.IsResolved() {
		t.original.Set(route)
		return
	}
	if t.dispatcher.consumeReroute() {
		t.handleReroute(ctx, route)
		return
	}
	t.handleExternalRoute(ctx, route)
}

func (t *Telemetry) handleReroute(ctx context.Context, route navigation.Route) {
	t.debugf("handleReroute")
	t.session.RecordReroute(t.opts.Now())
	t.publish()

	reroute := &event.Reroute{
		NewDistanceRemaining:    int(route.Distance),
		NewDurationRemaining:    int(route.Duration),
		NewGeometry:             route.Geometry,
		SecondsSinceLastReroute: t.session.SecondsSinceLastReroute,
	}
	t.populate(ctx, reroute, nil)

	t.dispatcher.AccumulatePostEventLocations(func(pre, post []navigation.Location) {
		reroute.LocationsBefore = event.FromLocations(pre)
		reroute.LocationsAfter = event.FromLocations(post)
		t.sendEvent(reroute)
	})
}

// handleExternalRoute restarts the session on a route that replaced the
// current one without the traveller going off route first.
func (t *Telemetry) handleExternalRoute(ctx context.Context, route navigation.Route) {
	t.debugf("handleExternalRoute")
	t.sessionStop(ctx)
	t.original = ResolvedOriginalRoute(route)
	t.sessionStart(ctx)
}

func (t *Telemetry) handleProgress(ctx context.Context, progress navigation.RouteProgress) {
	t.progress = &progress
	if t.monitoring && progress.State == navigation.RouteComplete {
		t.processArrival(ctx)
		t.stopProgressMonitoring()
	}
}

func (t *Telemetry) processArrival(ctx context.Context) {
	if !t.session.Started {
		t.debugf("route arrival received before a session start")
		return
	}
	t.session.RecordArrival(t.opts.Now())
	t.publish()
	log.Printf("[telemetry] session %s arrived", t.session.ID)

	arrive := &event.Arrive{}
	t.populate(ctx, arrive, nil)
	t.sendEvent(arrive)
}

func (t *Telemetry) handleFeedback(ctx context.Context, fb Feedback) bool {
	if !t.session.Started {
		t.debugf("feedback ignored, no session started")
		return false
	}
	t.debugf("collect post event locations for user feedback")

	feedback := &event.Feedback{
		FeedbackID:      session.NewID(),
		FeedbackType:    fb.Type,
		Source:          fb.Source,
		Description:     fb.Description,
		Screenshot:      fb.Screenshot,
		FeedbackSubType: fb.SubTypes,
		AppMetadata:     fb.Metadata,
	}
	if feedback.Source == "" {
		feedback.Source = event.SourceUser
	}
	t.populate(ctx, feedback, nil)

	t.dispatcher.AccumulatePostEventLocations(func(pre, post []navigation.Location) {
		feedback.LocationsBefore = event.FromLocations(pre)
		feedback.LocationsAfter = event.FromLocations(post)
		t.sendEvent(feedback)
	})
	return true
}

func (t *Telemetry) resetRouteProgress() {
	t.progress = nil
	t.dispatcher.resetRouteProgress()
}

func (t *Telemetry) startProgressMonitoring() {
	t.monitoring = true
}

func (t *Telemetry) stopProgressMonitoring() {
	t.monitoring = false
}
