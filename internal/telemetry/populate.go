package telemetry

import (
	"context"

	"github.com/nav-telemetry/backend/internal/event"
	"github.com/nav-telemetry/backend/internal/geo"
	"github.com/nav-telemetry/backend/internal/navigation"
)

const defaultPercentage = 100

// populate fills the payload shared by every navigation event. directions
// is the route measured against; when nil the route of the latest progress
// update is used. Missing context never fails: distances and indexes stay
// zero, the location defaults to 0,0 and percentages to 100.
func (t *Telemetry) populate(ctx context.Context, ev event.Event, directions *navigation.Route) {
	b := ev.Common()
	now := t.opts.Now()

	b.Event = ev.EventName()
	b.Created = event.FormatTime(now)
	b.Version = event.Version
	b.SDKIdentifier = t.opts.SDKIdentifier
	b.LocationEngine = t.opts.LocationEngine
	b.Simulation = t.opts.LocationEngine == ReplayLocationEngine

	if p := t.progress; p != nil {
		b.StepIndex = p.StepIndex
		b.DistanceRemaining = int(p.DistanceRemaining)
		b.DurationRemaining = int(p.DurationRemaining)
		b.DistanceCompleted = int(p.DistanceTraveled)
		b.Geometry = p.Route.Geometry
		b.Profile = p.Route.Profile
		b.RequestIdentifier = p.Route.RequestID
		b.StepCount = p.Route.StepCount()
		b.LegIndex = p.LegIndex
		b.LegCount = len(p.Route.Legs)
		if directions == nil {
			r := p.Route
			directions = &r
		}
	}

	if orig, ok := t.original.Get(); ok {
		b.OriginalStepCount = orig.StepCount()
		b.OriginalEstimatedDistance = int(orig.Distance)
		b.OriginalEstimatedDuration = int(orig.Duration)
		b.OriginalRequestIdentifier = orig.RequestID
		b.OriginalGeometry = orig.Geometry
	}

	var here geo.Point
	if last, ok := t.dispatcher.LastLocation(); ok {
		here = last.Point()
	}
	b.Lat = here.Lat
	b.Lng = here.Lng

	b.PercentTimeInPortrait = defaultPercentage
	b.PercentTimeInForeground = defaultPercentage
	if lm := t.opts.Lifecycle; lm != nil {
		b.PercentTimeInPortrait = lm.PortraitPercentage()
		b.PercentTimeInForeground = lm.ForegroundPercentage()
	}

	b.SessionIdentifier = t.session.ID
	b.TripIdentifier = t.session.TripID
	b.StartTimestamp = event.FormatTime(t.session.StartTime)
	b.RerouteCount = t.session.RerouteCount

	if directions != nil {
		if dest, ok := directions.Destination(); ok {
			b.AbsoluteDistanceToDestination = int(geo.DistanceMeters(here, dest))
		}
		b.EstimatedDistance = int(directions.Distance)
		b.EstimatedDuration = int(directions.Duration)
		b.TotalStepCount = directions.StepCount()
	}

	b.Phone = t.device.PhoneState(ctx)
}
