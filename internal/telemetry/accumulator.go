package telemetry

import "github.com/nav-telemetry/backend/internal/navigation"

// CompleteFunc receives the location window around an event: the samples
// seen before it was registered and those fed afterwards.
type CompleteFunc func(pre, post []navigation.Location)

type accumulatorEntry struct {
	pre        []navigation.Location
	post       []navigation.Location
	onComplete CompleteFunc
}

func (e *accumulatorEntry) complete() func() {
	pre, post, fn := e.pre, e.post, e.onComplete
	return func() { fn(pre, post) }
}

// completions are callbacks collected while the set is locked and run once
// the lock is released, so a callback may register a new entry.
type completions []func()

func (c completions) run() {
	for _, fn := range c {
		fn()
	}
}

// AccumulatorSet holds the live post-event windows. Every entry completes
// exactly once: when its post window reaches the limit, or on FlushAll.
// It is not safe for concurrent use; see Dispatcher.
type AccumulatorSet struct {
	entries []*accumulatorEntry
	limit   int
}

func NewAccumulatorSet(limit int) *AccumulatorSet {
	if limit <= 0 {
		limit = LocationBufferMaxSize
	}
	return &AccumulatorSet{limit: limit}
}

// Register starts a new window. pre must already be a private copy.
func (s *AccumulatorSet) Register(pre []navigation.Location, onComplete CompleteFunc) {
	s.entries = append(s.entries, &accumulatorEntry{
		pre:        pre,
		post:       make([]navigation.Location, 0, s.limit),
		onComplete: onComplete,
	})
}

// Feed appends loc to every live window. Windows that fill up are removed
// and their callbacks returned.
func (s *AccumulatorSet) Feed(loc navigation.Location) completions {
	var done completions
	live := s.entries[:0]
	for _, e := range s.entries {
		e.post = append(e.post, loc)
		if len(e.post) >= s.limit {
			done = append(done, e.complete())
			continue
		}
		live = append(live, e)
	}
	for i := len(live); i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	s.entries = live
	return done
}

// FlushAll completes every live window with whatever it has accumulated.
func (s *AccumulatorSet) FlushAll() completions {
	done := make(completions, 0, len(s.entries))
	for _, e := range s.entries {
		done = append(done, e.complete())
	}
	s.entries = nil
	return done
}

func (s *AccumulatorSet) Len() int {
	return len(s.entries)
}
