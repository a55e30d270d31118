// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package trace

import (
	"fmt"

	"github.com/Thermoquad/sounder/pkg/morse"
)

// FormatEvent formats an event as one line, with the time since the
// start of the trace
func FormatEvent(h Header, e morse.Event) string {
	seconds := 0.0
	if h.TicRate > 0 {
		seconds = float64(e.Elapsed) / h.TicRate
	}
	return fmt.Sprintf("[%10.4fs] tic=%5d %s", seconds, e.Tic, e)
}

// FormatHeader returns a one-line summary of the header
func FormatHeader(h Header) string {
	return fmt.Sprintf("Trace: %d wpm at %.0f tics/s", h.WPM, h.TicRate)
}

// Summarize feeds events through a fresh statistics tracker
func Summarize(h Header, events []morse.Event) morse.Counters {
	stats := morse.NewStatistics(h.TicRate)
	for _, e := range events {
		stats.Observe(e)
	}
	return stats.Snapshot()
}
