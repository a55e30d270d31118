// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"context"
	"runtime"
	"sync/atomic"
)

// Tic is the system time unit. It is 16 bits wide and wraps around, so
// comparisons must go through Expired.
type Tic uint16

// MaxHorizon is the furthest into the future a deadline may be set and
// still compare correctly against a wrapped counter.
const MaxHorizon Tic = 32767

// DefaultTicRate is the reference tick frequency in Hz: 104.2 us per tic,
// rolling over every 6.83 s. The transmitter shifts one bit per tic, so
// this is also the output baud rate.
const DefaultTicRate = 9600

// Expired reports whether deadline has been reached at now. This is
// rollover-safe as long as deadline was set no more than MaxHorizon tics
// into the future.
func Expired(now, deadline Tic) bool {
	return int16(deadline-now) <= 0
}

// TickClock is the periodic time source. Tick is called by a single
// producer (the Timer); Now may be called from any goroutine.
type TickClock struct {
	ticks atomic.Uint64
}

// NewTickClock returns a clock starting at zero
func NewTickClock() *TickClock {
	return &TickClock{}
}

// Now returns the current time in tics
func (c *TickClock) Now() Tic {
	return Tic(c.ticks.Load())
}

// Elapsed returns the full-width number of tics since the clock started.
// It is meant for simulation and statistics, not for deadlines.
func (c *TickClock) Elapsed() uint64 {
	return c.ticks.Load()
}

// Tick advances the clock by one tic
func (c *TickClock) Tick() {
	c.ticks.Add(1)
}

// Expired reports whether deadline has been reached at now
func (c *TickClock) Expired(now, deadline Tic) bool {
	return Expired(now, deadline)
}

// Delay spins for n tics. It blocks the caller and must only be used
// during start-up, while nothing else is polled. The clock only moves
// while the Timer runs, so Delay gives up with ctx.Err() once ctx is done.
func (c *TickClock) Delay(ctx context.Context, n Tic) error {
	deadline := c.Now() + n
	for !Expired(c.Now(), deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}
