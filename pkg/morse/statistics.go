// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"fmt"
	"sync"
	"time"
)

// Counters is a point-in-time copy of the statistics
type Counters struct {
	StartTime time.Time
	TicRate   float64

	Dots         uint64
	Dashes       uint64
	Characters   uint64
	Words        uint64
	InvalidChars uint64
	BlankChars   uint64
	Overruns     uint64

	DotTics uint64 // sum of dot mark lengths
}

// MeanDot returns the average measured dot length in tics
func (c Counters) MeanDot() float64 {
	if c.Dots == 0 {
		return 0
	}
	return float64(c.DotTics) / float64(c.Dots)
}

// EstimatedWPM returns the keying speed implied by the mean dot length.
// The measured mark includes the release debounce window, so this reads
// a little slow at high speeds.
func (c Counters) EstimatedWPM() float64 {
	dot := c.MeanDot()
	if dot == 0 || c.TicRate == 0 {
		return 0
	}
	return 1.2 * c.TicRate / dot
}

// Statistics tracks decoded symbols and characters. It is fed from the
// poll loop and may be read from another goroutine.
type Statistics struct {
	mu sync.Mutex
	c  Counters
}

// NewStatistics creates a new statistics tracker
func NewStatistics(ticRate float64) *Statistics {
	return &Statistics{
		c: Counters{StartTime: time.Now(), TicRate: ticRate},
	}
}

// Observe updates the counters from a pipeline event
func (s *Statistics) Observe(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case EventSymbol:
		switch e.Symbol {
		case SymbolDot:
			s.c.Dots++
			s.c.DotTics += uint64(e.Mark)
		case SymbolDash:
			s.c.Dashes++
		case SymbolEndOfWord:
			s.c.Words++
		}

	case EventChar:
		if e.Char == ' ' {
			return
		}
		s.c.Characters++
		switch e.Char {
		case InvalidChar:
			s.c.InvalidChars++
		case BlankChar:
			s.c.BlankChars++
		}

	case EventOverrun:
		s.c.Overruns++
	}
}

// Snapshot returns a copy of the counters
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c
}

// Reset clears all counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = Counters{StartTime: time.Now(), TicRate: s.c.TicRate}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	c := s.Snapshot()
	elapsed := time.Since(c.StartTime)

	var invalidPercent float64
	if c.Characters > 0 {
		invalidPercent = float64(c.InvalidChars) * 100.0 / float64(c.Characters)
	}

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Dots / Dashes:   %8d / %d\n", c.Dots, c.Dashes)
	result += fmt.Sprintf("Characters:      %8d\n", c.Characters)
	result += fmt.Sprintf("Words:           %8d\n", c.Words)
	if c.InvalidChars > 0 {
		result += fmt.Sprintf("Invalid Chars:   %8d (%.1f%%)\n", c.InvalidChars, invalidPercent)
	}
	if c.BlankChars > 0 {
		result += fmt.Sprintf("Blank Chars:     %8d\n", c.BlankChars)
	}
	if c.Overruns > 0 {
		result += fmt.Sprintf("TX Overruns:     %8d\n", c.Overruns)
	}
	result += fmt.Sprintf("Keying Speed:    %8.1f wpm\n", c.EstimatedWPM())
	result += "================================\n"

	return result
}
