// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package keying provides simulated telegraph keys.
package keying

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Thermoquad/sounder/pkg/codegen"
	"github.com/Thermoquad/sounder/pkg/morse"
)

// ErrUnknownChar is returned for text that has no Morse code
var ErrUnknownChar = errors.New("character has no Morse code")

// Gaps in units, ITU style
const (
	dashUnits     = 3
	elementGap    = 1
	characterGap  = 3
	wordGap       = 7
	trailingUnits = wordGap
	leadInUnits   = 1
)

var defaultPatterns = sync.OnceValues(func() (map[byte]string, error) {
	entries, err := codegen.Default()
	if err != nil {
		return nil, err
	}
	table, err := codegen.Build(entries)
	if err != nil {
		return nil, err
	}
	return table.Patterns(), nil
})

// span is a key-down interval [from, to) in tics since the script start
type span struct {
	from, to uint64
}

// Script is a key that plays a text as ideally timed Morse code. It reads
// the time from the tick clock, so it runs at whatever rate the clock is
// ticked.
type Script struct {
	clock  *morse.TickClock
	start  uint64
	marks  []span
	end    uint64
	bounce uint64
	text   string
}

// Option configures a Script
type Option func(*Script)

// WithBounce makes the contacts chatter for n tics after each release.
// Keep n below the debounce time or the chatter decodes as extra marks.
func WithBounce(n uint32) Option {
	return func(s *Script) {
		s.bounce = uint64(n)
	}
}

// NewScript creates a key playing text with a dot length of unit tics,
// starting now. Letters are folded to upper case; runs of spaces are a
// single word gap.
func NewScript(clock *morse.TickClock, text string, unit morse.Tic, opts ...Option) (*Script, error) {
	if unit == 0 {
		return nil, errors.New("script unit must be at least one tic")
	}
	patterns, err := defaultPatterns()
	if err != nil {
		return nil, fmt.Errorf("failed to load code table: %w", err)
	}

	s := &Script{
		clock: clock,
		start: clock.Elapsed(),
		text:  strings.ToUpper(text),
	}
	for _, opt := range opts {
		opt(s)
	}

	u := uint64(unit)
	t := leadInUnits * u
	for i, word := range strings.Fields(s.text) {
		if i > 0 {
			t += (wordGap - characterGap) * u
		}
		for j := 0; j < len(word); j++ {
			pattern, ok := patterns[word[j]]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownChar, word[j])
			}
			if j > 0 {
				t += (characterGap - elementGap) * u
			}
			for k, e := range pattern {
				if k > 0 {
					t += elementGap * u
				}
				length := u
				if e == '-' {
					length = dashUnits * u
				}
				s.marks = append(s.marks, span{from: t, to: t + length})
				t += length
			}
		}
	}
	s.end = t + trailingUnits*u
	return s, nil
}

// Text returns the text being played, upper case
func (s *Script) Text() string {
	return s.text
}

// Asserted reports whether the key is pressed at the current tic
func (s *Script) Asserted() bool {
	t := s.clock.Elapsed() - s.start

	// First mark ending after t
	i := sort.Search(len(s.marks), func(i int) bool {
		return s.marks[i].to > t
	})
	if i < len(s.marks) && s.marks[i].from <= t {
		return true
	}
	if s.bounce > 0 && i > 0 {
		since := t - s.marks[i-1].to
		return since < s.bounce && since%2 == 1
	}
	return false
}

// Done reports whether the whole text, and the gap after it, has played
func (s *Script) Done() bool {
	return s.clock.Elapsed()-s.start >= s.end
}

// Duration returns the script length in tics
func (s *Script) Duration() uint64 {
	return s.end
}
