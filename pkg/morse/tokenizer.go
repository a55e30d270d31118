// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

// Symbol is a token produced by the Tokenizer
type Symbol uint8

const (
	SymbolNone Symbol = iota
	SymbolDot
	SymbolDash
	SymbolEndOfChar
	SymbolEndOfWord
)

func (s Symbol) String() string {
	switch s {
	case SymbolNone:
		return "NONE"
	case SymbolDot:
		return "DOT"
	case SymbolDash:
		return "DASH"
	case SymbolEndOfChar:
		return "END_OF_CHAR"
	case SymbolEndOfWord:
		return "END_OF_WORD"
	default:
		return "UNKNOWN"
	}
}

// Tokenizer states
const (
	stateInterword = iota
	stateShort
	stateLong
	stateInterelement
	stateIntercharacter
)

var tokenizerStateNames = [...]string{
	stateInterword:      "INTERWORD",
	stateShort:          "SHORT",
	stateLong:           "LONG",
	stateInterelement:   "INTERELEMENT",
	stateIntercharacter: "INTERCHARACTER",
}

// Tokenizer classifies mark and space durations into symbols.
//
// A mark shorter than 2 units is a dot, anything longer a dash. A space
// shorter than 2 units keeps the character going, reaching 2 units ends
// the character, and 3 more units end the word. The word threshold is
// counted from the end of the character, so a word ends 5 units after the
// release rather than 3. Deadlines are checked
// before edges, so a duration landing exactly on a threshold counts as
// having reached it.
type Tokenizer struct {
	state    int
	deadline Tic
	timing   Timing
	markAt   Tic
	lastMark Tic
}

// NewTokenizer creates a tokenizer in the INTERWORD state
func NewTokenizer(timing Timing) *Tokenizer {
	return &Tokenizer{
		state:  stateInterword,
		timing: timing,
	}
}

// Step processes the edge observed at now and returns at most one symbol
func (t *Tokenizer) Step(edge Edge, now Tic) Symbol {
	sym := t.timeout(now)
	switch t.state {
	case stateInterword, stateInterelement, stateIntercharacter:
		if edge == EdgeFalling {
			t.startMark(now)
		}

	case stateShort:
		if edge == EdgeRising {
			t.endMark(now)
			return SymbolDot
		}

	case stateLong:
		if edge == EdgeRising {
			t.endMark(now)
			return SymbolDash
		}
	}
	return sym
}

// timeout applies the transition of an elapsed deadline, if any
func (t *Tokenizer) timeout(now Tic) Symbol {
	switch t.state {
	case stateShort:
		if Expired(now, t.deadline) {
			t.state = stateLong
		}

	case stateInterelement:
		if Expired(now, t.deadline) {
			t.state = stateIntercharacter
			t.deadline = now + t.timing.Unit3
			return SymbolEndOfChar
		}

	case stateIntercharacter:
		if Expired(now, t.deadline) {
			t.state = stateInterword
			return SymbolEndOfWord
		}
	}
	return SymbolNone
}

func (t *Tokenizer) startMark(now Tic) {
	t.state = stateShort
	t.deadline = now + t.timing.Unit2
	t.markAt = now
}

func (t *Tokenizer) endMark(now Tic) {
	t.state = stateInterelement
	t.deadline = now + t.timing.Unit2
	t.lastMark = now - t.markAt
}

// LastMark returns the duration of the most recent complete mark
func (t *Tokenizer) LastMark() Tic {
	return t.lastMark
}

// State returns the tokenizer state name
func (t *Tokenizer) State() string {
	if t.state < 0 || t.state >= len(tokenizerStateNames) {
		return "UNKNOWN"
	}
	return tokenizerStateNames[t.state]
}
