// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pins

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/warthog618/go-gpiocdev"

	"github.com/Thermoquad/sounder/pkg/morse"
)

const consumer = "sounder"

// Chip is a Board on the Linux GPIO character device
type Chip struct {
	chip  string
	lines []*gpiocdev.Line
	errs  errorLatch
}

// NewChip creates a board on the given chip, e.g. "gpiochip0". Lines are
// requested lazily.
func NewChip(chip string) *Chip {
	return &Chip{chip: chip}
}

// resolve turns a line name into a chip and offset. A number is an
// offset on the board's chip; anything else is looked up by line name.
func (c *Chip) resolve(name string) (string, int, error) {
	if offset, err := strconv.Atoi(name); err == nil {
		if offset < 0 {
			return "", 0, fmt.Errorf("invalid line offset %d", offset)
		}
		return c.chip, offset, nil
	}
	chip, offset, err := gpiocdev.FindLine(name)
	if err != nil {
		return "", 0, fmt.Errorf("failed to find line %q: %w", name, err)
	}
	return chip, offset, nil
}

func (c *Chip) request(name string, options ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
	chip, offset, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	options = append(options, gpiocdev.WithConsumer(consumer))
	l, err := gpiocdev.RequestLine(chip, offset, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s line %d: %w", chip, offset, err)
	}
	c.lines = append(c.lines, l)
	return l, nil
}

func (c *Chip) Input(name string, activeLow bool) (morse.Input, error) {
	options := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp}
	if activeLow {
		options = append(options, gpiocdev.AsActiveLow)
	}
	l, err := c.request(name, options...)
	if err != nil {
		return nil, err
	}
	return &cdevInput{line: l, errs: &c.errs}, nil
}

func (c *Chip) Output(name string, initial bool) (morse.Line, error) {
	l, err := c.request(name, gpiocdev.AsOutput(level(initial)))
	if err != nil {
		return nil, err
	}
	return &cdevOutput{line: l, errs: &c.errs}, nil
}

func (c *Chip) Err() error {
	return c.errs.get()
}

// Close releases every requested line
func (c *Chip) Close() error {
	var errs []error
	for _, l := range c.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.lines = nil
	return errors.Join(errs...)
}

type cdevInput struct {
	line *gpiocdev.Line
	errs *errorLatch
}

func (i *cdevInput) Asserted() bool {
	v, err := i.line.Value()
	if err != nil {
		i.errs.set(fmt.Errorf("failed to read line: %w", err))
		return false
	}
	return v == 1
}

type cdevOutput struct {
	line *gpiocdev.Line
	errs *errorLatch
}

func (o *cdevOutput) Set(high bool) {
	if err := o.line.SetValue(level(high)); err != nil {
		o.errs.set(fmt.Errorf("failed to set line: %w", err))
	}
}

func level(high bool) int {
	if high {
		return 1
	}
	return 0
}
