// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testTiming keeps the unit short so tests run in a few hundred polls
var testTiming = Timing{Unit1: 10, Unit2: 20, Unit3: 30, Debounce: 3}

// recorder is a Line remembering every level it was set to
type recorder struct {
	levels []bool
}

func (r *recorder) Set(high bool) { r.levels = append(r.levels, high) }

// slowWriter sleeps on every write, like a congested port or socket
type slowWriter struct {
	delay time.Duration

	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *slowWriter) Write(p []byte) (int, error) {
	time.Sleep(w.delay)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *slowWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

// harness drives the whole pipeline one tic per poll, the way the timer
// and the main loop interleave on hardware.
type harness struct {
	t         *testing.T
	clock     *TickClock
	key       bool
	indicator *recorder
	tx        *Transmitter
	rx        *FrameReceiver
	wire      bytes.Buffer
	o         *Orchestrator
	events    []Event
	decoded   []byte
	// txStalled stops the transmit tick, as if the interrupt were lost
	txStalled bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, clock: NewTickClock(), indicator: &recorder{}}
	h.rx = NewFrameReceiver(&h.wire)
	h.tx = NewTransmitter(h.rx)

	o, err := New(Config{
		Clock:       h.clock,
		Key:         InputFunc(func() bool { return h.key }),
		Indicator:   h.indicator,
		Transmitter: h.tx,
		Speed:       SpeedConfig{TicRate: 1000, Timing: testTiming},
	})
	require.NoError(t, err)
	o.Observe(func(e Event) { h.events = append(h.events, e) })
	h.o = o
	return h
}

// hold keeps the key in the given state for n tics
func (h *harness) hold(asserted bool, n int) {
	h.key = asserted
	for i := 0; i < n; i++ {
		h.clock.Tick()
		if !h.txStalled {
			h.tx.Tick()
		}
		if c, ok := h.o.Poll(); ok {
			h.decoded = append(h.decoded, c)
		}
	}
}

// key plays a dot/dash pattern: dots of 1u, dashes of 3u, 1u between
// elements. It does not add the trailing gap.
func (h *harness) keyPattern(pattern string) {
	for i, e := range pattern {
		if i > 0 {
			h.hold(false, int(testTiming.Unit1))
		}
		switch e {
		case '.':
			h.hold(true, int(testTiming.Unit1))
		case '-':
			h.hold(true, 3*int(testTiming.Unit1))
		}
	}
}

// keyText keys text with 3u between characters and 7u between words,
// then leaves the key up long enough to flush the last word.
func (h *harness) keyText(text string) {
	u := int(testTiming.Unit1)
	for _, c := range []byte(text) {
		if c == ' ' {
			h.hold(false, 4*u)
			continue
		}
		h.keyPattern(patternOf(CodeTable[c-' ']))
		h.hold(false, 3*u)
	}
	h.hold(false, 8*u)
}

// symbols returns the symbols seen in events
func (h *harness) symbols() []Symbol {
	var out []Symbol
	for _, e := range h.events {
		if e.Kind == EventSymbol {
			out = append(out, e.Symbol)
		}
	}
	return out
}

// patternOf converts a code number back to dots and dashes
func patternOf(code uint16) string {
	var p []byte
	for code != 0 {
		if code&1 == 1 {
			p = append(p, '.')
			code >>= 1
		} else {
			p = append(p, '-')
			code >>= 2
		}
	}
	return string(p)
}
