// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_PhasesAlternate(t *testing.T) {
	clock := NewTickClock()
	line := &recorder{}
	tx := NewTransmitter(line)
	timer := NewTimer(clock, tx, 1000, 0)
	require.NoError(t, tx.Send('A'))

	timer.phase(0)
	assert.Equal(t, uint64(1), clock.Elapsed())
	assert.Len(t, line.levels, 1, "clock phase does not shift")

	timer.phase(1)
	assert.Equal(t, uint64(1), clock.Elapsed())
	assert.Len(t, line.levels, 2, "transmit phase shifts one bit")
}

func TestTimer_HalfPeriod(t *testing.T) {
	timer := NewTimer(NewTickClock(), nil, DefaultTicRate, 0)
	assert.Equal(t, 52083*time.Nanosecond, timer.HalfPeriod())
}

func TestTimer_Run(t *testing.T) {
	clock := NewTickClock()
	var out bytes.Buffer
	rx := NewFrameReceiver(&out)
	tx := NewTransmitter(rx)
	timer := NewTimer(clock, tx, 10000, time.Millisecond)
	require.NoError(t, tx.Send('K'))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := timer.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Missed phases are replayed, so the count follows the wall clock
	assert.Greater(t, clock.Elapsed(), uint64(100))
	assert.False(t, tx.Busy())
	assert.Equal(t, "K", out.String())
}
