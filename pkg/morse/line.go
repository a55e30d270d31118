// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

// Input is a boolean input line, already converted to its logical sense
// (for the key: true while the key is held down).
type Input interface {
	Asserted() bool
}

// Line is a binary output: the indicator, or the serial TX line.
type Line interface {
	Set(high bool)
}

// InputFunc adapts a function to Input
type InputFunc func() bool

func (f InputFunc) Asserted() bool { return f() }

// LineFunc adapts a function to Line
type LineFunc func(high bool)

func (f LineFunc) Set(high bool) { f(high) }
