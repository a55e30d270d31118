// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"context"
	"time"
)

// Timer drives the two periodic handlers: the clock tick (phase A) and
// the transmit tick (phase B), at the same rate and half a period apart,
// so the two never run at the same time.
//
// Phases are scheduled from the wall clock. When the process falls
// behind, the missed phases are replayed in order, so no tic is lost.
type Timer struct {
	clock       *TickClock
	tx          *Transmitter
	rate        float64
	granularity time.Duration
}

// NewTimer creates a timer ticking clock and tx at rate Hz. Granularity
// is how often the goroutine wakes up; zero wakes up every half period.
func NewTimer(clock *TickClock, tx *Transmitter, rate float64, granularity time.Duration) *Timer {
	return &Timer{
		clock:       clock,
		tx:          tx,
		rate:        rate,
		granularity: granularity,
	}
}

// HalfPeriod returns the time between a clock phase and a transmit phase
func (t *Timer) HalfPeriod() time.Duration {
	return time.Duration(float64(time.Second) / t.rate / 2)
}

// Run services both handlers until ctx is done
func (t *Timer) Run(ctx context.Context) error {
	half := t.HalfPeriod()
	wake := t.granularity
	if wake <= 0 {
		wake = half
	}

	ticker := time.NewTicker(wake)
	defer ticker.Stop()

	start := time.Now()
	var done int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			due := int64(now.Sub(start) / half)
			for ; done < due; done++ {
				t.phase(done)
			}
		}
	}
}

// phase runs handler n: even phases tick the clock, odd ones the UART
func (t *Timer) phase(n int64) {
	if n%2 == 0 {
		t.clock.Tick()
		return
	}
	if t.tx != nil {
		t.tx.Tick()
	}
}
