// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

// Edge is a transition of the debounced key state
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeNone:
		return "NONE"
	case EdgeRising:
		return "RISE"
	case EdgeFalling:
		return "FALL"
	default:
		return "UNKNOWN"
	}
}

// Edge detector states
const (
	edgeUp = iota
	edgeDown
	edgeBouncing
)

// EdgeDetector turns raw key readings into debounced edges. Closing the
// key is taken as clean and reported at once; a release is only reported
// once the key has stayed up for the debounce window.
type EdgeDetector struct {
	state     int
	deadline  Tic
	debounce  Tic
	indicator Line
}

// NewEdgeDetector creates a detector in the UP state. The indicator, if
// not nil, mirrors the debounced key.
func NewEdgeDetector(debounce Tic, indicator Line) *EdgeDetector {
	return &EdgeDetector{
		state:     edgeUp,
		debounce:  debounce,
		indicator: indicator,
	}
}

// Step processes one key reading taken at now
func (d *EdgeDetector) Step(asserted bool, now Tic) Edge {
	switch d.state {
	case edgeUp:
		if asserted {
			d.state = edgeDown
			d.setIndicator(true)
			return EdgeFalling
		}

	case edgeDown:
		if !asserted {
			d.state = edgeBouncing
			d.deadline = now + d.debounce
		}

	case edgeBouncing:
		if asserted {
			d.state = edgeDown
		} else if Expired(now, d.deadline) {
			d.state = edgeUp
			d.setIndicator(false)
			return EdgeRising
		}
	}
	return EdgeNone
}

// KeyDown reports the debounced key state
func (d *EdgeDetector) KeyDown() bool {
	return d.state != edgeUp
}

// State returns the detector state name
func (d *EdgeDetector) State() string {
	switch d.state {
	case edgeUp:
		return "UP"
	case edgeDown:
		return "DOWN"
	case edgeBouncing:
		return "BOUNCING"
	default:
		return "UNKNOWN"
	}
}

func (d *EdgeDetector) setIndicator(on bool) {
	if d.indicator != nil {
		d.indicator.Set(on)
	}
}
