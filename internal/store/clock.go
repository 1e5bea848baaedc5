package store

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Clock is a monotonic logical clock for catalog rows.
//
// Every artifact and run is stamped with a strictly increasing seq from
// this clock, so listings order the same way regardless of wall time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// ResumeClock returns a clock positioned after the highest seq already in
// the catalog, so a reopened catalog keeps its ordering.
func (s *Store) ResumeClock(ctx context.Context) (*Clock, error) {
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	return NewClockAt(last), nil
}
