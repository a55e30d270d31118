// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import "fmt"

// EventKind identifies what an Event reports
type EventKind uint8

const (
	EventEdge EventKind = iota + 1
	EventSymbol
	EventChar
	EventOverrun
)

func (k EventKind) String() string {
	switch k {
	case EventEdge:
		return "EDGE"
	case EventSymbol:
		return "SYMBOL"
	case EventChar:
		return "CHAR"
	case EventOverrun:
		return "OVERRUN"
	default:
		return "UNKNOWN"
	}
}

// Event is one observable step of the pipeline
type Event struct {
	Kind    EventKind
	Tic     Tic
	Elapsed uint64
	Edge    Edge
	Symbol  Symbol
	Char    byte
	// Mark is the duration of the mark ending with a DOT or DASH symbol
	Mark Tic
}

func (e Event) String() string {
	switch e.Kind {
	case EventEdge:
		return fmt.Sprintf("%s %s", e.Kind, e.Edge)
	case EventSymbol:
		if e.Symbol == SymbolDot || e.Symbol == SymbolDash {
			return fmt.Sprintf("%s %s (%d tics)", e.Kind, e.Symbol, e.Mark)
		}
		return fmt.Sprintf("%s %s", e.Kind, e.Symbol)
	case EventChar, EventOverrun:
		return fmt.Sprintf("%s %q", e.Kind, e.Char)
	default:
		return e.Kind.String()
	}
}

// Observer receives pipeline events. It is called from the poll loop and
// must not block.
type Observer func(Event)
