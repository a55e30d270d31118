// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"fmt"
	"io"
	"sync"
)

// Receiver states
const (
	rxIdle = iota
	rxData
	rxStop
)

// FrameReceiver is a software UART receiver sampling one bit per call to
// Set. Fed from a Transmitter, it loops the bit-banged line back into
// bytes, which are written to the output writer. Set runs on the Timer
// goroutine, so the writer must not block: put an OutputQueue in front of
// a port or socket.
type FrameReceiver struct {
	mu        sync.Mutex
	out       io.Writer
	state     int
	bit       int
	data      byte
	received  uint64
	framing   uint64
	lastError error
}

// NewFrameReceiver creates a receiver writing decoded bytes to out
func NewFrameReceiver(out io.Writer) *FrameReceiver {
	return &FrameReceiver{out: out}
}

// Set samples one bit time of the line
func (r *FrameReceiver) Set(high bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case rxIdle:
		if !high {
			r.state = rxData
			r.bit = 0
			r.data = 0
		}

	case rxData:
		if high {
			r.data |= 1 << r.bit
		}
		r.bit++
		if r.bit == 8 {
			r.state = rxStop
		}

	case rxStop:
		r.state = rxIdle
		if !high {
			r.framing++
			r.lastError = fmt.Errorf("framing error: stop bit low after 0x%02X", r.data)
			return
		}
		r.received++
		if _, err := r.out.Write([]byte{r.data}); err != nil {
			r.lastError = fmt.Errorf("write received byte: %w", err)
		}
	}
}

// Received returns the number of bytes received with a valid stop bit
func (r *FrameReceiver) Received() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received
}

// FramingErrors returns the number of frames with a low stop bit
func (r *FrameReceiver) FramingErrors() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.framing
}

// Err returns the last framing or write error, if any
func (r *FrameReceiver) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}
