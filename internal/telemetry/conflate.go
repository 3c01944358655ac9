package telemetry

// conflated is a one-slot channel that keeps only the latest value. Offer
// never blocks: an unread value is replaced.
type conflated[T any] struct {
	ch chan T
}

func newConflated[T any]() *conflated[T] {
	return &conflated[T]{ch: make(chan T, 1)}
}

func (c *conflated[T]) Offer(v T) {
	for {
		select {
		case c.ch <- v:
			return
		default:
		}
		select {
		case <-c.ch:
		default:
		}
	}
}

// Poll removes and returns the pending value, if any.
func (c *conflated[T]) Poll() (T, bool) {
	select {
	case v := <-c.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

func (c *conflated[T]) C() <-chan T {
	return c.ch
}
