package telemetry

import "github.com/nav-telemetry/backend/internal/navigation"

// LocationBufferMaxSize bounds both the rolling location history and each
// post-event window.
const LocationBufferMaxSize = 20

// RingBuffer is a fixed-capacity FIFO of recent location samples. It is not
// safe for concurrent use; the dispatcher guards it with the same mutex as
// the accumulator set.
type RingBuffer struct {
	samples  []navigation.Location
	capacity int
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = LocationBufferMaxSize
	}
	return &RingBuffer{
		samples:  make([]navigation.Location, 0, capacity),
		capacity: capacity,
	}
}

// Append adds loc, evicting the oldest sample first when full.
func (b *RingBuffer) Append(loc navigation.Location) {
	if len(b.samples) >= b.capacity {
		copy(b.samples, b.samples[1:])
		b.samples = b.samples[:len(b.samples)-1]
	}
	b.samples = append(b.samples, loc)
}

// Snapshot returns a copy of the current contents, oldest first.
func (b *RingBuffer) Snapshot() []navigation.Location {
	out := make([]navigation.Location, len(b.samples))
	copy(out, b.samples)
	return out
}

// Last returns the most recent sample.
func (b *RingBuffer) Last() (navigation.Location, bool) {
	if len(b.samples) == 0 {
		return navigation.Location{}, false
	}
	return b.samples[len(b.samples)-1], true
}

func (b *RingBuffer) Len() int {
	return len(b.samples)
}

func (b *RingBuffer) Clear() {
	b.samples = b.samples[:0]
}
