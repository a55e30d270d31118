// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"errors"
	"fmt"
)

// Keying rates in words per minute, indexed by the speed selector. The
// selector lines have pull-ups, so both floating (index 3) is the slowest.
var KeyRates = [4]int{18, 12, 8, 5}

// DebounceSeconds is the release debounce window.
const DebounceSeconds = 0.01

// ErrHorizon is returned when a derived delay would not fit in the
// rollover-safe comparison window.
var ErrHorizon = errors.New("delay exceeds rollover-safe horizon")

// Timing holds the delays derived from the speed selection, in tics.
// It is computed once at start-up and never modified.
type Timing struct {
	Unit1    Tic // one dot
	Unit2    Tic // dot/dash and element/character threshold
	Unit3    Tic // additional gap before a word boundary
	Debounce Tic
}

// SpeedConfig is the start-up speed selection
type SpeedConfig struct {
	Index   uint8
	WPM     int
	TicRate float64
	Timing  Timing
}

// SpeedIndex builds the 2-bit selector from the levels of the two
// selector lines.
func SpeedIndex(b0High, b1High bool) uint8 {
	var index uint8
	if b0High {
		index |= 1
	}
	if b1High {
		index |= 2
	}
	return index
}

// DotTics returns the length of a dot at wpm words per minute ("PARIS"
// timing: 1.2 s / wpm).
func DotTics(wpm int, ticRate float64) uint32 {
	return uint32(1.2 / float64(wpm) * ticRate)
}

// NewSpeedConfig derives the timing constants for the given selector
func NewSpeedConfig(ticRate float64, index uint8) (SpeedConfig, error) {
	if index >= uint8(len(KeyRates)) {
		return SpeedConfig{}, fmt.Errorf("speed index %d out of range (0-%d)", index, len(KeyRates)-1)
	}
	if ticRate <= 0 {
		return SpeedConfig{}, fmt.Errorf("tick rate must be positive, got %v", ticRate)
	}

	wpm := KeyRates[index]
	dot := DotTics(wpm, ticRate)
	debounce := uint32(DebounceSeconds*ticRate + 0.5)

	// Only additions here, the 3u delay is the largest one armed.
	unit2 := dot + dot
	unit3 := unit2 + dot
	if unit3 > uint32(MaxHorizon) || debounce > uint32(MaxHorizon) {
		return SpeedConfig{}, fmt.Errorf("%w: %d wpm at %.0f Hz needs %d tics", ErrHorizon, wpm, ticRate, unit3)
	}
	if dot == 0 {
		return SpeedConfig{}, fmt.Errorf("tick rate %.0f Hz too low for %d wpm", ticRate, wpm)
	}

	return SpeedConfig{
		Index:   index,
		WPM:     wpm,
		TicRate: ticRate,
		Timing: Timing{
			Unit1:    Tic(dot),
			Unit2:    Tic(unit2),
			Unit3:    Tic(unit3),
			Debounce: Tic(debounce),
		},
	}, nil
}

// SelectSpeed samples the two selector lines once and derives the timing.
// A later change on the lines has no effect until the next start.
func SelectSpeed(ticRate float64, b0, b1 Input) (SpeedConfig, error) {
	return NewSpeedConfig(ticRate, SpeedIndex(b0.Asserted(), b1.Asserted()))
}
