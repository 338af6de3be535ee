package engine

import "sync/atomic"

// Clock is the monotonic logical clock that assigns trial IDs.
//
// IDs are strictly increasing within a store, which makes the ranking
// tie-break ("lower trial ID wins") well defined across resumed runs.
// Wall-clock time is never used for ordering.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the search loop assigns IDs from a single goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific value.
// Used on resume to continue from the store's maximum trial ID.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next ID and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
