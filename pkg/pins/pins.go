// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package pins connects the decoder's inputs and outputs to GPIO lines.
package pins

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Thermoquad/sounder/pkg/morse"
)

// Backend names
const (
	BackendGPIOCDev = "gpiocdev"
	BackendPeriph   = "periph"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown GPIO backend")

// Board hands out input and output lines by name
type Board interface {
	// Input requests a line as an input with the pull-up enabled. With
	// activeLow set the line reads asserted while it is pulled to ground.
	Input(name string, activeLow bool) (morse.Input, error)
	// Output requests a line as an output driven to initial
	Output(name string, initial bool) (morse.Line, error)
	// Err returns the first error seen while reading or driving a line
	Err() error
	Close() error
}

// Open opens the named backend. Chip is only used by gpiocdev.
func Open(backend, chip string) (Board, error) {
	switch backend {
	case BackendGPIOCDev:
		return NewChip(chip), nil
	case BackendPeriph:
		p, err := OpenPeriph()
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Fixed is an input stuck at one level, used to select the speed from
// configuration instead of jumpers.
type Fixed bool

func (f Fixed) Asserted() bool { return bool(f) }

// SpeedInputs returns the two speed selector inputs for a speed index
func SpeedInputs(index uint8) (b0, b1 morse.Input) {
	return Fixed(index&1 != 0), Fixed(index&2 != 0)
}

// errorLatch keeps the first line error. Inputs and outputs cannot
// return errors through the pipeline, so they report here.
type errorLatch struct {
	mu  sync.Mutex
	err error
}

func (l *errorLatch) set(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err == nil {
		l.err = err
	}
}

func (l *errorLatch) get() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
