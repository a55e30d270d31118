// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"errors"
	"sync/atomic"
)

// ErrTransmitterBusy is returned by Send while a frame is still being
// shifted out. The frame in flight is left untouched.
var ErrTransmitterBusy = errors.New("transmitter busy: frame in flight")

// FrameBits is the number of bit times in one frame: start, 8 data, stop.
const FrameBits = 10

// Transmitter is a bit-banged UART transmitter. Send arms a frame from
// the poll loop; Tick shifts one bit out per transmit interrupt.
//
// The shift register holds the start bit, the data bits and a stop bit.
// It is only written by Send while the transmitter is disabled, and only
// by Tick while it is enabled.
type Transmitter struct {
	line    Line
	shift   atomic.Uint32
	enabled atomic.Bool
	frames  atomic.Uint64
}

// NewTransmitter creates a transmitter driving line. The line is set
// high, its idle level.
func NewTransmitter(line Line) *Transmitter {
	line.Set(true)
	return &Transmitter{line: line}
}

// Send starts the transmission of b
func (t *Transmitter) Send(b byte) error {
	if t.enabled.Load() {
		return ErrTransmitterBusy
	}
	t.shift.Store(uint32(0x100|uint16(b)) << 1)
	t.enabled.Store(true)
	return nil
}

// Busy reports whether a frame is in flight
func (t *Transmitter) Busy() bool {
	return t.enabled.Load()
}

// Frames returns the number of frames completely sent
func (t *Transmitter) Frames() uint64 {
	return t.frames.Load()
}

// Tick sends the current bit, least significant first
func (t *Transmitter) Tick() {
	if !t.enabled.Load() {
		return
	}
	sr := uint16(t.shift.Load())
	t.line.Set(sr&1 != 0)
	sr >>= 1

	// The register drains to zero right after the stop bit; the line is
	// left high, which is the idle level.
	t.shift.Store(uint32(sr))
	if sr == 0 {
		t.frames.Add(1)
		t.enabled.Store(false)
	}
}
