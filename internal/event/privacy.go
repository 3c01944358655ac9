package event

import (
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/nav-telemetry/backend/internal/geo"
)

// PrivacyFilter masks fields of navigation events before they are broadcast
// to live clients. The zero value is a no-op filter.
type PrivacyFilter struct {
	MaskSessionIDs      bool
	CoordinatePrecision int // decimal places kept; <= 0 keeps full precision
	DropScreenshots     bool
	DropLocationTrails  bool
}

// IsNoop reports whether the filter does nothing.
func (f *PrivacyFilter) IsNoop() bool {
	return !f.MaskSessionIDs && f.CoordinatePrecision <= 0 && !f.DropScreenshots && !f.DropLocationTrails
}

// Apply returns a copy of ev with sensitive fields masked according to the
// filter configuration. The original event is never modified.
func (f *PrivacyFilter) Apply(ev Event) Event {
	if f.IsNoop() {
		return ev
	}

	switch e := ev.(type) {
	case *Depart:
		c := *e
		f.applyBase(&c.Base)
		return &c
	case *Arrive:
		c := *e
		f.applyBase(&c.Base)
		return &c
	case *Cancel:
		c := *e
		f.applyBase(&c.Base)
		return &c
	case *Reroute:
		c := *e
		f.applyBase(&c.Base)
		c.NewGeometry = f.points(c.NewGeometry)
		c.LocationsBefore = f.locations(c.LocationsBefore)
		c.LocationsAfter = f.locations(c.LocationsAfter)
		return &c
	case *Feedback:
		c := *e
		f.applyBase(&c.Base)
		if f.DropScreenshots {
			c.Screenshot = ""
		}
		c.LocationsBefore = f.locations(c.LocationsBefore)
		c.LocationsAfter = f.locations(c.LocationsAfter)
		return &c
	}
	return ev
}

func (f *PrivacyFilter) applyBase(b *Base) {
	if f.MaskSessionIDs {
		b.SessionIdentifier = shortHash(b.SessionIdentifier)
		b.TripIdentifier = shortHash(b.TripIdentifier)
	}
	b.Lat = f.round(b.Lat)
	b.Lng = f.round(b.Lng)
	b.Geometry = f.points(b.Geometry)
	b.OriginalGeometry = f.points(b.OriginalGeometry)
}

func (f *PrivacyFilter) locations(locs []Location) []Location {
	if f.DropLocationTrails {
		return []Location{}
	}
	if f.CoordinatePrecision <= 0 || len(locs) == 0 {
		return locs
	}
	out := make([]Location, len(locs))
	for i, l := range locs {
		l.Lat = f.round(l.Lat)
		l.Lng = f.round(l.Lng)
		out[i] = l
	}
	return out
}

func (f *PrivacyFilter) points(pts []geo.Point) []geo.Point {
	if f.CoordinatePrecision <= 0 || len(pts) == 0 {
		return pts
	}
	out := make([]geo.Point, len(pts))
	for i, p := range pts {
		out[i] = geo.Point{Lat: f.round(p.Lat), Lng: f.round(p.Lng)}
	}
	return out
}

func (f *PrivacyFilter) round(v float64) float64 {
	if f.CoordinatePrecision <= 0 {
		return v
	}
	scale := math.Pow(10, float64(f.CoordinatePrecision))
	return math.Round(v*scale) / scale
}

// MaskID hashes id when session identifiers are masked.
func (f *PrivacyFilter) MaskID(id string) string {
	if !f.MaskSessionIDs {
		return id
	}
	return shortHash(id)
}

// shortHash returns a truncated SHA-256 hex digest for an opaque identifier.
func shortHash(s string) string {
	if s == "" {
		return ""
	}
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:6])
}
