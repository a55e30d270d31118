// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pins

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/Thermoquad/sounder/pkg/morse"
)

// Periph is a Board on periph.io pins
type Periph struct {
	lookup func(name string) gpio.PinIO
	errs   errorLatch
}

// OpenPeriph initializes the host drivers and returns a board finding
// pins in the periph registry
func OpenPeriph() (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return NewPeriph(gpioreg.ByName), nil
}

// NewPeriph creates a board finding pins with lookup
func NewPeriph(lookup func(name string) gpio.PinIO) *Periph {
	return &Periph{lookup: lookup}
}

func (p *Periph) pin(name string) (gpio.PinIO, error) {
	pin := p.lookup(name)
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", name)
	}
	return pin, nil
}

func (p *Periph) Input(name string, activeLow bool) (morse.Input, error) {
	pin, err := p.pin(name)
	if err != nil {
		return nil, err
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure %s as input: %w", name, err)
	}
	return &periphInput{pin: pin, activeLow: activeLow}, nil
}

func (p *Periph) Output(name string, initial bool) (morse.Line, error) {
	pin, err := p.pin(name)
	if err != nil {
		return nil, err
	}
	if err := pin.Out(gpio.Level(initial)); err != nil {
		return nil, fmt.Errorf("failed to configure %s as output: %w", name, err)
	}
	return &periphOutput{pin: pin, errs: &p.errs}, nil
}

func (p *Periph) Err() error {
	return p.errs.get()
}

// Close is a no-op; periph pins stay configured
func (p *Periph) Close() error {
	return nil
}

type periphInput struct {
	pin       gpio.PinIO
	activeLow bool
}

func (i *periphInput) Asserted() bool {
	return i.pin.Read() == gpio.Level(!i.activeLow)
}

type periphOutput struct {
	pin  gpio.PinIO
	errs *errorLatch
}

func (o *periphOutput) Set(high bool) {
	if err := o.pin.Out(gpio.Level(high)); err != nil {
		o.errs.set(fmt.Errorf("failed to drive %s: %w", o.pin.Name(), err))
	}
}
