// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package trace records pipeline events as a stream of CBOR arrays and
// reads them back.
//
// Every record is [kind, {key: value}]. Kind 0 is the header, written
// once at the start:
//
//	[0, {0: tic_rate, 1: wpm}]
//
// Other kinds are morse.EventKind values:
//
//	[kind, {0: tic, 1: elapsed, 2: value, 3: mark}]
//
// where value is the edge, the symbol or the character, and mark is only
// present on DOT and DASH symbols.
package trace

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/sounder/pkg/morse"
)

// Record kinds and map keys
const (
	KindHeader = 0

	KeyTicRate = 0
	KeyWPM     = 1

	KeyTic     = 0
	KeyElapsed = 1
	KeyValue   = 2
	KeyMark    = 3
)

// ErrNoHeader is returned when a trace does not start with a header
var ErrNoHeader = errors.New("trace does not start with a header")

// Header describes the run a trace was recorded from
type Header struct {
	TicRate float64
	WPM     int
}

// Recorder writes events to a trace. Observe matches morse.Observer.
type Recorder struct {
	mu  sync.Mutex
	enc *cbor.Encoder
	err error
}

// NewRecorder writes the header and returns a recorder appending to w
func NewRecorder(w io.Writer, h Header) (*Recorder, error) {
	r := &Recorder{enc: cbor.NewEncoder(w)}
	header := []interface{}{uint8(KindHeader), map[int]interface{}{
		KeyTicRate: h.TicRate,
		KeyWPM:     uint64(h.WPM),
	}}
	if err := r.enc.Encode(header); err != nil {
		return nil, fmt.Errorf("failed to write trace header: %w", err)
	}
	return r, nil
}

// Observe appends one event. After a write error further events are
// dropped; the error is available from Err.
func (r *Recorder) Observe(e morse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}

	payload := map[int]interface{}{
		KeyTic:     uint64(e.Tic),
		KeyElapsed: e.Elapsed,
	}
	switch e.Kind {
	case morse.EventEdge:
		payload[KeyValue] = uint64(e.Edge)
	case morse.EventSymbol:
		payload[KeyValue] = uint64(e.Symbol)
		if e.Symbol == morse.SymbolDot || e.Symbol == morse.SymbolDash {
			payload[KeyMark] = uint64(e.Mark)
		}
	case morse.EventChar, morse.EventOverrun:
		payload[KeyValue] = uint64(e.Char)
	}

	if err := r.enc.Encode([]interface{}{uint8(e.Kind), payload}); err != nil {
		r.err = fmt.Errorf("failed to write trace event: %w", err)
	}
}

// Err returns the first write error
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Reader reads a trace
type Reader struct {
	dec    *cbor.Decoder
	header Header
}

// NewReader reads the header from r
func NewReader(r io.Reader) (*Reader, error) {
	tr := &Reader{dec: cbor.NewDecoder(r)}
	kind, payload, err := tr.next()
	if err != nil {
		return nil, err
	}
	if kind != KindHeader {
		return nil, ErrNoHeader
	}
	tr.header.TicRate, _ = getMapFloat(payload, KeyTicRate)
	wpm, _ := getMapUint(payload, KeyWPM)
	tr.header.WPM = int(wpm)
	return tr, nil
}

// Header returns the trace header
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next event, or io.EOF at the end of the trace
func (r *Reader) Next() (morse.Event, error) {
	kind, payload, err := r.next()
	if err != nil {
		return morse.Event{}, err
	}

	e := morse.Event{Kind: morse.EventKind(kind)}
	tic, _ := getMapUint(payload, KeyTic)
	e.Tic = morse.Tic(tic)
	e.Elapsed, _ = getMapUint(payload, KeyElapsed)
	value, _ := getMapUint(payload, KeyValue)

	switch e.Kind {
	case morse.EventEdge:
		e.Edge = morse.Edge(value)
	case morse.EventSymbol:
		e.Symbol = morse.Symbol(value)
		mark, _ := getMapUint(payload, KeyMark)
		e.Mark = morse.Tic(mark)
	case morse.EventChar, morse.EventOverrun:
		if value > 0xFF {
			return morse.Event{}, fmt.Errorf("character out of range: %d", value)
		}
		e.Char = byte(value)
	default:
		return morse.Event{}, fmt.Errorf("unknown event kind %d", kind)
	}
	return e, nil
}

// next decodes one [kind, payload] record
func (r *Reader) next() (uint8, map[int]interface{}, error) {
	var msg []interface{}
	if err := r.dec.Decode(&msg); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	if len(msg) != 2 {
		return 0, nil, fmt.Errorf("expected 2-element array, got %d elements", len(msg))
	}

	var kind uint8
	switch v := msg[0].(type) {
	case uint64:
		if v > 255 {
			return 0, nil, fmt.Errorf("record kind out of range: %d", v)
		}
		kind = uint8(v)
	default:
		return 0, nil, fmt.Errorf("expected uint for record kind, got %T", msg[0])
	}

	m, ok := msg[1].(map[interface{}]interface{})
	if !ok {
		return 0, nil, fmt.Errorf("expected map for payload, got %T", msg[1])
	}
	payload := make(map[int]interface{}, len(m))
	for key, val := range m {
		switch k := key.(type) {
		case uint64:
			payload[int(k)] = val
		case int64:
			payload[int(k)] = val
		default:
			return 0, nil, fmt.Errorf("expected integer map key, got %T", key)
		}
	}
	return kind, payload, nil
}

// ReadAll reads every event of a trace
func ReadAll(r io.Reader) (Header, []morse.Event, error) {
	tr, err := NewReader(r)
	if err != nil {
		return Header{}, nil, err
	}
	var events []morse.Event
	for {
		e, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return tr.Header(), events, nil
		}
		if err != nil {
			return tr.Header(), events, err
		}
		events = append(events, e)
	}
}

func getMapUint(m map[int]interface{}, key int) (uint64, bool) {
	switch val := m[key].(type) {
	case uint64:
		return val, true
	case int64:
		if val >= 0 {
			return uint64(val), true
		}
	}
	return 0, false
}

func getMapFloat(m map[int]interface{}, key int) (float64, bool) {
	switch val := m[key].(type) {
	case float64:
		return val, true
	case uint64:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}
