package reveal

import "sync/atomic"

// Clock is the monotonic logical clock that hands out reveal generations.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// In practice only the loop goroutine calls Next.
type Clock struct {
	gen atomic.Int64
}

// NewClock creates a new clock starting at 0.
// The first call to Next returns 1; generation 0 is the restored state.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next generation and advances the clock.
func (c *Clock) Next() int64 {
	return c.gen.Add(1)
}

// Current returns the last generation handed out.
func (c *Clock) Current() int64 {
	return c.gen.Load()
}
