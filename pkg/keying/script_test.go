// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package keying

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/sounder/pkg/morse"
)

var testTiming = morse.Timing{Unit1: 10, Unit2: 20, Unit3: 30, Debounce: 3}

// decode plays s through the full pipeline, one tic per poll
func decode(t *testing.T, clock *morse.TickClock, s *Script) (string, string) {
	t.Helper()
	var wire bytes.Buffer
	tx := morse.NewTransmitter(morse.NewFrameReceiver(&wire))
	o, err := morse.New(morse.Config{
		Clock:       clock,
		Key:         s,
		Transmitter: tx,
		Speed:       morse.SpeedConfig{TicRate: 1000, Timing: testTiming},
	})
	require.NoError(t, err)

	var decoded []byte
	for !s.Done() {
		clock.Tick()
		tx.Tick()
		if c, ok := o.Poll(); ok {
			decoded = append(decoded, c)
		}
	}
	return string(decoded), wire.String()
}

func TestScript_Timeline(t *testing.T) {
	clock := morse.NewTickClock()
	s, err := NewScript(clock, "A", 10)
	require.NoError(t, err)

	var down []uint64
	for !s.Done() {
		if s.Asserted() {
			down = append(down, clock.Elapsed())
		}
		clock.Tick()
	}

	// lead-in, dot, gap, dash, trailing word gap
	require.Len(t, down, 40)
	assert.Equal(t, uint64(10), down[0])
	assert.Equal(t, uint64(19), down[9])
	assert.Equal(t, uint64(30), down[10])
	assert.Equal(t, uint64(59), down[39])
	assert.Equal(t, uint64(130), s.Duration())
}

func TestScript_StartsAtCurrentTic(t *testing.T) {
	clock := morse.NewTickClock()
	for i := 0; i < 1000; i++ {
		clock.Tick()
	}
	s, err := NewScript(clock, "E", 10)
	require.NoError(t, err)

	assert.False(t, s.Asserted())
	for i := 0; i < 10; i++ {
		clock.Tick()
	}
	assert.True(t, s.Asserted())
}

func TestScript_Decodes(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		bounce uint32
		want   string
	}{
		{"single word", "SOS", 0, "SOS "},
		{"two words", "hello world", 0, "HELLO WORLD "},
		{"extra spaces", "  CQ   DE  ", 0, "CQ DE "},
		{"punctuation", "73, TU!", 0, "73, TU! "},
		{"blank code", "A_B", 0, "A_B "},
		{"bounce", "PARIS PARIS", 2, "PARIS PARIS "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := morse.NewTickClock()
			var opts []Option
			if tt.bounce > 0 {
				opts = append(opts, WithBounce(tt.bounce))
			}
			s, err := NewScript(clock, tt.text, testTiming.Unit1, opts...)
			require.NoError(t, err)

			decoded, wire := decode(t, clock, s)
			assert.Equal(t, tt.want, decoded)
			assert.Equal(t, tt.want, wire)
		})
	}
}

func TestScript_BounceChatters(t *testing.T) {
	clock := morse.NewTickClock()
	s, err := NewScript(clock, "E", 10, WithBounce(4))
	require.NoError(t, err)

	var levels []bool
	for clock.Elapsed() < 26 {
		clock.Tick()
		if clock.Elapsed() >= 19 {
			levels = append(levels, s.Asserted())
		}
	}
	assert.Equal(t, []bool{true, false, true, false, true, false, false, false}, levels)
}

func TestScript_Errors(t *testing.T) {
	clock := morse.NewTickClock()

	_, err := NewScript(clock, "100%", 10)
	assert.ErrorIs(t, err, ErrUnknownChar)

	_, err = NewScript(clock, "{}", 10)
	assert.ErrorIs(t, err, ErrUnknownChar)

	_, err = NewScript(clock, "E", 0)
	assert.Error(t, err)
}

func TestScript_Empty(t *testing.T) {
	clock := morse.NewTickClock()
	s, err := NewScript(clock, "   ", 10)
	require.NoError(t, err)

	decoded, _ := decode(t, clock, s)
	assert.Empty(t, decoded)
}
