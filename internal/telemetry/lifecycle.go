package telemetry

import (
	"sync"
	"time"
)

// LifecycleMonitor reports how the host application was used during the
// session. Percentages are 0..100.
type LifecycleMonitor interface {
	PortraitPercentage() int
	ForegroundPercentage() int
}

// LifecycleTracker accumulates time spent in the foreground and in portrait
// orientation from state changes reported by the host.
type LifecycleTracker struct {
	mu  sync.Mutex
	now func() time.Time

	started    time.Time
	lastChange time.Time
	foreground bool
	portrait   bool

	foregroundTime time.Duration
	portraitTime   time.Duration
}

// NewLifecycleTracker starts tracking with the app in the foreground and in
// portrait orientation.
func NewLifecycleTracker() *LifecycleTracker {
	return newLifecycleTracker(time.Now)
}

func newLifecycleTracker(now func() time.Time) *LifecycleTracker {
	t := now()
	return &LifecycleTracker{
		now:        now,
		started:    t,
		lastChange: t,
		foreground: true,
		portrait:   true,
	}
}

// SetForeground records a foreground/background transition.
func (l *LifecycleTracker) SetForeground(foreground bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advanceLocked()
	l.foreground = foreground
}

// SetPortrait records an orientation change.
func (l *LifecycleTracker) SetPortrait(portrait bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advanceLocked()
	l.portrait = portrait
}

func (l *LifecycleTracker) ForegroundPercentage() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advanceLocked()
	return l.percentLocked(l.foregroundTime)
}

func (l *LifecycleTracker) PortraitPercentage() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advanceLocked()
	return l.percentLocked(l.portraitTime)
}

// advanceLocked credits the time since the last change to the current
// states. Caller must hold l.mu.
func (l *LifecycleTracker) advanceLocked() {
	now := l.now()
	elapsed := now.Sub(l.lastChange)
	if elapsed <= 0 {
		return
	}
	if l.foreground {
		l.foregroundTime += elapsed
	}
	if l.portrait {
		l.portraitTime += elapsed
	}
	l.lastChange = now
}

// percentLocked is 100 until any time has elapsed. Caller must hold l.mu.
func (l *LifecycleTracker) percentLocked(d time.Duration) int {
	total := l.lastChange.Sub(l.started)
	if total <= 0 {
		return 100
	}
	return int(100 * d / total)
}
