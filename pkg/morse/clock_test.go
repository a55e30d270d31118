// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// ============================================================
// Expired Tests
// ============================================================

func TestExpired_Basic(t *testing.T) {
	tests := []struct {
		name     string
		now      Tic
		deadline Tic
		expected bool
	}{
		{"deadline reached", 100, 100, true},
		{"deadline passed", 101, 100, true},
		{"deadline ahead", 99, 100, false},
		{"ahead across rollover", 65535, 4, false},
		{"reached across rollover", 4, 4, true},
		{"passed across rollover", 10, 65530, true},
		{"max horizon ahead", 0, MaxHorizon, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expired(tt.now, tt.deadline))
		})
	}
}

func TestExpired_Rollover(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := Tic(rapid.Uint16().Draw(t, "start"))
		ahead := Tic(rapid.Uint16Range(0, uint16(MaxHorizon)).Draw(t, "ahead"))
		deadline := start + ahead

		// Every instant from start up to the deadline is before it...
		for _, elapsed := range []Tic{0, ahead / 2, ahead - 1} {
			if elapsed >= ahead {
				continue
			}
			if Expired(start+elapsed, deadline) {
				t.Fatalf("expired %d tics early (start %d, deadline %d)", ahead-elapsed, start, deadline)
			}
		}
		// ...and every instant up to MaxHorizon past it is after it.
		late := Tic(rapid.Uint16Range(0, uint16(MaxHorizon)).Draw(t, "late"))
		if !Expired(deadline+late, deadline) {
			t.Fatalf("not expired %d tics after deadline %d", late, deadline)
		}
	})
}

// ============================================================
// TickClock Tests
// ============================================================

func TestTickClock_Wraps(t *testing.T) {
	c := NewTickClock()
	for i := 0; i < 65536; i++ {
		c.Tick()
	}
	assert.Equal(t, Tic(0), c.Now())
	assert.Equal(t, uint64(65536), c.Elapsed())

	c.Tick()
	assert.Equal(t, Tic(1), c.Now())
}

func TestTickClock_Delay(t *testing.T) {
	c := NewTickClock()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				c.Tick()
				time.Sleep(10 * time.Microsecond)
			}
		}
	}()

	start := c.Elapsed()
	assert.NoError(t, c.Delay(context.Background(), 50))
	assert.GreaterOrEqual(t, c.Elapsed()-start, uint64(50))
}

func TestTickClock_DelayStoppedClock(t *testing.T) {
	c := NewTickClock()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Nothing ticks the clock, so only the context can end the delay
	err := c.Delay(ctx, 50)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, c.Elapsed())
}
