package telemetry

import (
	"context"
	"sync"

	"github.com/nav-telemetry/backend/internal/navigation"
)

// OriginalRoute is a single-assignment cell for the route a session started
// with. Waiters are released when the cell is set. A session reset installs
// a new cell, so waiters on the old one never see the next session's route.
type OriginalRoute struct {
	mu    sync.Mutex
	done  chan struct{}
	route navigation.Route
}

func NewOriginalRoute() *OriginalRoute {
	return &OriginalRoute{done: make(chan struct{})}
}

// ResolvedOriginalRoute returns a cell that is already set to r.
func ResolvedOriginalRoute(r navigation.Route) *OriginalRoute {
	o := NewOriginalRoute()
	o.Set(r)
	return o
}

// Set stores r if the cell is empty and reports whether it did.
func (o *OriginalRoute) Set(r navigation.Route) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	select {
	case <-o.done:
		return false
	default:
	}
	o.route = r
	close(o.done)
	return true
}

func (o *OriginalRoute) Get() (navigation.Route, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	select {
	case <-o.done:
		return o.route, true
	default:
		return navigation.Route{}, false
	}
}

func (o *OriginalRoute) IsResolved() bool {
	_, ok := o.Get()
	return ok
}

// Done is closed once the cell is set.
func (o *OriginalRoute) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the cell is set or ctx is done.
func (o *OriginalRoute) Wait(ctx context.Context) (navigation.Route, error) {
	select {
	case <-o.done:
		r, _ := o.Get()
		return r, nil
	case <-ctx.Done():
		return navigation.Route{}, ctx.Err()
	}
}
