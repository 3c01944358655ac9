// Package telemetry turns the navigation engine's signal stream into
// navigation analytics events.
//
// All session, route and progress state is owned by the goroutine running
// Start. Observers registered with the navigation engine (see Dispatcher)
// never touch that state directly; they hand the latest value of each
// signal over through one-slot conflated channels.
package telemetry

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nav-telemetry/backend/internal/device"
	"github.com/nav-telemetry/backend/internal/event"
	"github.com/nav-telemetry/backend/internal/metrics"
	"github.com/nav-telemetry/backend/internal/navigation"
	"github.com/nav-telemetry/backend/internal/session"
)

// ReplayLocationEngine is the location engine name of simulated drives.
// Events produced while it is in use are flagged as simulations.
const ReplayLocationEngine = "replay"

// ErrNotRunning is returned by calls that need the processing loop after
// Start has returned.
var ErrNotRunning = errors.New("telemetry is not running")

// Options configures a Telemetry. Zero values get defaults in New.
type Options struct {
	SDKIdentifier  string
	SDKVersion     string
	LocationEngine string
	BufferSize     int
	Debug          bool

	Reporter  metrics.Reporter
	Device    device.Provider
	Lifecycle LifecycleMonitor

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Feedback is a user feedback submission from the host application.
type Feedback struct {
	Type        string             `json:"type"`
	Description string             `json:"description"`
	Source      string             `json:"source"`
	Screenshot  string             `json:"screenshot,omitempty"`
	SubTypes    []string           `json:"subTypes,omitempty"`
	Metadata    *event.AppMetadata `json:"appMetadata,omitempty"`
}

type feedbackRequest struct {
	fb    Feedback
	reply chan bool
}

// Telemetry turns navigation signals into analytics events and hands them
// to a metrics.Reporter.
type Telemetry struct {
	opts       Options
	dispatcher *Dispatcher
	reporter   metrics.Reporter
	device     device.Provider

	// Owned by the Start goroutine.
	session      *session.Session
	original     *OriginalRoute
	progress     *navigation.RouteProgress
	monitoring   bool
	startPending <-chan struct{}

	// Safe to read from any goroutine.
	started      atomic.Bool
	sessionRoute atomic.Pointer[navigation.Route]
	current      atomic.Pointer[session.Session]
	gate         gateStats

	feedback chan feedbackRequest
	running  atomic.Bool
	done     chan struct{}

	initMu     sync.Mutex
	navigators map[navigation.Navigator]bool
	turnstile  bool
}

// New returns a Telemetry that is not yet processing. Call Start to run it.
func New(opts Options) *Telemetry {
	if opts.BufferSize <= 0 {
		opts.BufferSize = LocationBufferMaxSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Reporter == nil {
		opts.Reporter = metrics.LogReporter{}
	}
	if opts.Device == nil {
		opts.Device = device.Static{OperatingSystem: "unknown", BatteryLevel: -1}
	}
	t := &Telemetry{
		opts:       opts,
		dispatcher: NewDispatcher(opts.BufferSize),
		reporter:   opts.Reporter,
		device:     opts.Device,
		session:    session.New(),
		original:   NewOriginalRoute(),
		feedback:   make(chan feedbackRequest, 16),
		done:       make(chan struct{}),
		navigators: make(map[navigation.Navigator]bool),
	}
	t.publish()
	return t
}

// Dispatcher returns the observer that receives navigation signals.
func (t *Telemetry) Dispatcher() *Dispatcher {
	return t.dispatcher
}

// Initialize registers the telemetry with a navigator and posts the
// turnstile event the first time it is called. Calling it again with the
// same navigator only re-registers the observers.
func (t *Telemetry) Initialize(n navigation.Navigator) {
	t.initMu.Lock()
	defer t.initMu.Unlock()

	if t.navigators[n] {
		navigation.UnregisterAll(n, t.dispatcher)
	}
	navigation.RegisterAll(n, t.dispatcher)
	t.navigators[n] = true

	if !t.turnstile {
		t.turnstile = true
		t.postTurnstile()
	}
	t.debugf("valid initialization")
}

// Unregister detaches the telemetry from a navigator.
func (t *Telemetry) Unregister(n navigation.Navigator) {
	t.initMu.Lock()
	defer t.initMu.Unlock()
	if !t.navigators[n] {
		return
	}
	navigation.UnregisterAll(n, t.dispatcher)
	delete(t.navigators, n)
}

func (t *Telemetry) postTurnstile() {
	t.reporter.AddEvent(&event.Turnstile{
		Event:         event.NameTurnstile,
		Created:       event.FormatTime(t.opts.Now()),
		SDKIdentifier: t.opts.SDKIdentifier,
		SDKVersion:    t.opts.SDKVersion,
		UserID:        session.NewID(),
		Enabled:       true,
	})
}

// Start processes navigation signals until ctx is cancelled. A session
// still running at that point is stopped, which delivers its cancel event.
func (t *Telemetry) Start(ctx context.Context) {
	if !t.running.CompareAndSwap(false, true) {
		log.Println("[telemetry] already running")
		return
	}
	defer close(t.done)

	log.Println("[telemetry] started")

	d := t.dispatcher
	for {
		select {
		case <-ctx.Done():
			t.shutdown()
			log.Println("[telemetry] stopped")
			return
		case state := <-d.sessionStates.C():
			t.handleSessionState(ctx, state)
		case u := <-d.routes.C():
			t.handleRoutes(ctx, u)
		case progress := <-d.progress.C():
			t.handleProgress(ctx, progress)
		case <-t.startPending:
			t.completeSessionStart(ctx)
		case req := <-t.feedback:
			req.reply <- t.handleFeedback(ctx, req.fb)
		}
	}
}

// Done is closed when Start returns.
func (t *Telemetry) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until Start has returned or timeout elapses. Shutdown is best
// effort: a timeout is logged and otherwise ignored.
func (t *Telemetry) Wait(timeout time.Duration) {
	select {
	case <-t.done:
	case <-time.After(timeout):
		log.Printf("[telemetry] shutdown did not finish within %s", timeout)
	}
}

func (t *Telemetry) shutdown() {
	t.startPending = nil
	if t.session.Started {
		t.debugf("scope cancelled, stopping session")
		t.sessionStop(context.Background())
	}
	t.stopProgressMonitoring()
}

// PostUserFeedback submits user feedback for the current session. The event
// is delivered once its post-event location window fills up or the session
// ends. It reports false, without error, when no session is started.
func (t *Telemetry) PostUserFeedback(ctx context.Context, fb Feedback) (bool, error) {
	req := feedbackRequest{fb: fb, reply: make(chan bool, 1)}
	select {
	case t.feedback <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-t.done:
		return false, ErrNotRunning
	}
	select {
	case accepted := <-req.reply:
		return accepted, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-t.done:
		return false, ErrNotRunning
	}
}

// CurrentSession returns a copy of the current session values.
func (t *Telemetry) CurrentSession() session.Session {
	return t.current.Load().Clone()
}

// publish makes the session values visible to other goroutines.
func (t *Telemetry) publish() {
	c := t.session.Clone()
	t.current.Store(&c)
}

func (t *Telemetry) debugf(format string, args ...any) {
	if t.opts.Debug {
		log.Printf("[telemetry] "+format, args...)
	}
}
