package mock

import (
	"slices"
	"sync"

	"github.com/nav-telemetry/backend/internal/navigation"
)

func register[T comparable](mu sync.Locker, list *[]T, o T) {
	mu.Lock()
	defer mu.Unlock()
	if !slices.Contains(*list, o) {
		*list = append(*list, o)
	}
}

func unregister[T comparable](mu sync.Locker, list *[]T, o T) {
	mu.Lock()
	defer mu.Unlock()
	if i := slices.Index(*list, o); i >= 0 {
		*list = slices.Delete(*list, i, i+1)
	}
}

func (n *Navigator) RegisterLocationObserver(o navigation.LocationObserver) {
	register(&n.mu, &n.locations, o)
}

func (n *Navigator) UnregisterLocationObserver(o navigation.LocationObserver) {
	unregister(&n.mu, &n.locations, o)
}

func (n *Navigator) RegisterRouteProgressObserver(o navigation.RouteProgressObserver) {
	register(&n.mu, &n.progress, o)
}

func (n *Navigator) UnregisterRouteProgressObserver(o navigation.RouteProgressObserver) {
	unregister(&n.mu, &n.progress, o)
}

func (n *Navigator) RegisterRoutesObserver(o navigation.RoutesObserver) {
	register(&n.mu, &n.routes, o)
}

func (n *Navigator) UnregisterRoutesObserver(o navigation.RoutesObserver) {
	unregister(&n.mu, &n.routes, o)
}

func (n *Navigator) RegisterOffRouteObserver(o navigation.OffRouteObserver) {
	register(&n.mu, &n.offRoute, o)
}

func (n *Navigator) UnregisterOffRouteObserver(o navigation.OffRouteObserver) {
	unregister(&n.mu, &n.offRoute, o)
}

func (n *Navigator) RegisterSessionObserver(o navigation.SessionObserver) {
	register(&n.mu, &n.sessions, o)
}

func (n *Navigator) UnregisterSessionObserver(o navigation.SessionObserver) {
	unregister(&n.mu, &n.sessions, o)
}

// ObserverCount returns the number of registered observers across all
// signals.
func (n *Navigator) ObserverCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.locations) + len(n.progress) + len(n.routes) + len(n.offRoute) + len(n.sessions)
}

func (n *Navigator) emitLocation(loc navigation.Location) {
	n.mu.RLock()
	obs := slices.Clone(n.locations)
	n.mu.RUnlock()
	for _, o := range obs {
		o.OnRawLocationChanged(loc)
	}
}

func (n *Navigator) emitProgress(p navigation.RouteProgress) {
	n.mu.RLock()
	obs := slices.Clone(n.progress)
	n.mu.RUnlock()
	for _, o := range obs {
		o.OnRouteProgressChanged(p)
	}
}

func (n *Navigator) emitRoutes(routes ...navigation.Route) {
	n.mu.RLock()
	obs := slices.Clone(n.routes)
	n.mu.RUnlock()
	for _, o := range obs {
		o.OnRoutesChanged(routes)
	}
}

func (n *Navigator) emitOffRoute(offRoute bool) {
	n.mu.RLock()
	obs := slices.Clone(n.offRoute)
	n.mu.RUnlock()
	for _, o := range obs {
		o.OnOffRouteStateChanged(offRoute)
	}
}

func (n *Navigator) emitSession(state navigation.SessionState) {
	n.mu.RLock()
	obs := slices.Clone(n.sessions)
	n.mu.RUnlock()
	for _, o := range obs {
		o.OnNavigationSessionStateChanged(state)
	}
}
