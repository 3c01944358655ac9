// Package mock replays scripted drives through the navigation observer
// interfaces, standing in for a real navigation engine.
package mock

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nav-telemetry/backend/internal/geo"
	"github.com/nav-telemetry/backend/internal/navigation"
)

const (
	speedMetersPerSecond = 12.0
	samplesPerSegment    = 3
	routeSegments        = 12
	stepsPerLeg          = 4
)

// Scenarios.
const (
	Steady  = "steady"
	Reroute = "reroute"
	Replace = "replace"
	Abandon = "abandon"
)

var origin = geo.Point{Lat: 52.5200, Lng: 13.4050}

// Navigator is a navigation engine that replays drives. Observers are
// called synchronously from the replay goroutine.
type Navigator struct {
	mu        sync.RWMutex
	locations []navigation.LocationObserver
	progress  []navigation.RouteProgressObserver
	routes    []navigation.RoutesObserver
	offRoute  []navigation.OffRouteObserver
	sessions  []navigation.SessionObserver

	scenario string
	tick     time.Duration
	loop     bool
	rng      *rand.Rand
}

var _ navigation.Navigator = (*Navigator)(nil)

func NewNavigator(scenario string, tick time.Duration, seed int64, loop bool) *Navigator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Navigator{
		scenario: scenario,
		tick:     tick,
		loop:     loop,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Start replays drives in the background until ctx is cancelled, or after
// one drive when looping is off.
func (n *Navigator) Start(ctx context.Context) {
	go n.run(ctx)
}

func (n *Navigator) run(ctx context.Context) {
	for {
		if err := n.Drive(ctx, n.scenario); err != nil {
			if ctx.Err() == nil {
				log.Printf("[mock] drive failed: %v", err)
			}
			return
		}
		if !n.loop {
			return
		}
		if err := n.wait(ctx, 3); err != nil {
			return
		}
	}
}

// drive is the state of one replayed trip.
type drive struct {
	n        *Navigator
	route    navigation.Route
	traveled float64
	pos      geo.Point
}

// Drive replays one trip of the given scenario and returns when it ends.
func (n *Navigator) Drive(ctx context.Context, scenario string) error {
	dest := n.destination()
	d := &drive{n: n, route: n.buildRoute(origin, dest), pos: origin}
	log.Printf("[mock] %s drive to %.4f,%.4f (%.0f m)", scenario, dest.Lat, dest.Lng, d.route.Distance)

	n.emitSession(navigation.ActiveGuidance)
	n.emitRoutes(d.route)
	if err := n.wait(ctx, 1); err != nil {
		return err
	}

	var err error
	switch scenario {
	case Steady:
		err = d.follow(ctx, 1)
	case Reroute:
		err = d.advanceReroute(ctx)
	case Replace:
		err = d.advanceReplace(ctx)
	case Abandon:
		if err = d.follow(ctx, 0.5); err == nil {
			n.emitSession(navigation.Idle)
		}
		return err
	default:
		return fmt.Errorf("unknown scenario %q", scenario)
	}
	if err != nil {
		return err
	}
	return d.arrive(ctx)
}

// follow drives along the current route until fraction of its geometry has
// been covered, emitting a location and a progress update per sample.
func (d *drive) follow(ctx context.Context, fraction float64) error {
	pts := d.route.Geometry
	end := int(math.Ceil(float64(len(pts)-1) * fraction))
	start := d.segmentIndex()
	for i := start; i < end; i++ {
		for s := 1; s <= samplesPerSegment; s++ {
			next := geo.Interpolate(pts[i], pts[i+1], float64(s)/samplesPerSegment)
			d.moveTo(next, navigation.LocationTracking)
			if err := d.n.wait(ctx, 1); err != nil {
				return err
			}
		}
	}
	return nil
}

// segmentIndex returns the geometry segment nearest the current position.
func (d *drive) segmentIndex() int {
	best, bestDist := 0, math.Inf(1)
	for i, p := range d.route.Geometry {
		if dist := geo.DistanceMeters(d.pos, p); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best >= len(d.route.Geometry)-1 {
		best = len(d.route.Geometry) - 2
	}
	return best
}

func (d *drive) moveTo(p geo.Point, state navigation.ProgressState) {
	bearing := geo.Bearing(d.pos, p)
	d.traveled += geo.DistanceMeters(d.pos, p)
	d.pos = p

	d.n.emitLocation(navigation.Location{
		Latitude:           p.Lat,
		Longitude:          p.Lng,
		Speed:              speedMetersPerSecond,
		Bearing:            bearing,
		Altitude:           34,
		Time:               time.Now(),
		HorizontalAccuracy: 3 + d.n.rng.Float64()*4,
	})
	d.n.emitProgress(d.progressAt(state))
}

func (d *drive) progressAt(state navigation.ProgressState) navigation.RouteProgress {
	dest, _ := d.route.Destination()
	remaining := geo.DistanceMeters(d.pos, dest)
	step := 0
	if total := d.route.StepCount(); total > 0 && d.route.Distance > 0 {
		step = int(float64(total) * (1 - remaining/d.route.Distance))
		step = max(0, min(step, total-1))
	}
	return navigation.RouteProgress{
		Route:             d.route,
		State:             state,
		DistanceRemaining: remaining,
		DurationRemaining: remaining / speedMetersPerSecond,
		DistanceTraveled:  d.traveled,
		StepIndex:         step,
	}
}

// advanceReroute leaves the route halfway, reports off-route and continues
// on a new route from the deviation point.
func (d *drive) advanceReroute(ctx context.Context) error {
	if err := d.follow(ctx, 0.4); err != nil {
		return err
	}

	// Drift sideways for a few samples.
	dest, _ := d.route.Destination()
	for i := 1; i <= 4; i++ {
		d.moveTo(geo.Point{Lat: d.pos.Lat + 0.0004, Lng: d.pos.Lng - 0.0002}, navigation.OffRoute)
		if i == 2 {
			d.n.emitOffRoute(true)
		}
		if err := d.n.wait(ctx, 1); err != nil {
			return err
		}
	}

	d.route = d.n.buildRoute(d.pos, dest)
	d.n.emitRoutes(d.route)
	d.n.emitOffRoute(false)
	if err := d.n.wait(ctx, 1); err != nil {
		return err
	}
	return d.follow(ctx, 1)
}

// advanceReplace switches to an alternative route without leaving the
// current one first.
func (d *drive) advanceReplace(ctx context.Context) error {
	if err := d.follow(ctx, 0.5); err != nil {
		return err
	}
	dest, _ := d.route.Destination()
	d.route = d.n.buildRoute(d.pos, dest)
	d.n.emitRoutes(d.route)
	if err := d.n.wait(ctx, 1); err != nil {
		return err
	}
	return d.follow(ctx, 1)
}

// arrive reports route completion, idles at the destination for a few
// samples and ends guidance.
func (d *drive) arrive(ctx context.Context) error {
	for i := 0; i < 3; i++ {
		d.moveTo(d.pos, navigation.RouteComplete)
		if err := d.n.wait(ctx, 1); err != nil {
			return err
		}
	}
	d.n.emitSession(navigation.FreeDrive)
	if err := d.n.wait(ctx, 1); err != nil {
		return err
	}
	d.n.emitSession(navigation.Idle)
	return nil
}

func (n *Navigator) destination() geo.Point {
	// 1 to 3 km away in a random direction.
	dist := 0.01 + n.rng.Float64()*0.02
	angle := n.rng.Float64() * 2 * math.Pi
	return geo.Point{
		Lat: origin.Lat + dist*math.Cos(angle),
		Lng: origin.Lng + dist*math.Sin(angle)*1.6,
	}
}

// buildRoute makes a route from a to b whose geometry wobbles around the
// straight line.
func (n *Navigator) buildRoute(a, b geo.Point) navigation.Route {
	geometry := make([]geo.Point, 0, routeSegments+1)
	for i := 0; i <= routeSegments; i++ {
		p := geo.Interpolate(a, b, float64(i)/routeSegments)
		if i > 0 && i < routeSegments {
			p.Lat += (n.rng.Float64() - 0.5) * 0.0006
			p.Lng += (n.rng.Float64() - 0.5) * 0.0006
		}
		geometry = append(geometry, p)
	}

	var distance float64
	for i := 1; i < len(geometry); i++ {
		distance += geo.DistanceMeters(geometry[i-1], geometry[i])
	}
	duration := distance / speedMetersPerSecond

	steps := make([]navigation.Step, stepsPerLeg)
	for i := range steps {
		steps[i] = navigation.Step{
			Distance: distance / stepsPerLeg,
			Duration: duration / stepsPerLeg,
			Name:     fmt.Sprintf("Street %d", n.rng.Intn(90)+10),
		}
	}

	return navigation.Route{
		RequestID: uuid.NewString(),
		Profile:   "driving-traffic",
		Distance:  distance,
		Duration:  duration,
		Geometry:  geometry,
		Legs:      []navigation.Leg{{Distance: distance, Duration: duration, Steps: steps}},
	}
}

func (n *Navigator) wait(ctx context.Context, ticks int) error {
	if n.tick <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(ticks) * n.tick)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
