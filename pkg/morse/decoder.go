// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

//go:generate go run ../.. gen_table --output code_table.go

const (
	// BlankChar is produced for a code number with no marks, and for the
	// code stored at index 0 of the table.
	BlankChar = '_'
	// InvalidChar is produced for a code number not found in the table.
	InvalidChar = '#'
)

// Lookup converts a code number to an ASCII character by linear search of
// CodeTable. The character is ' ' + the index where the code was found.
func Lookup(code uint16) byte {
	if code == 0 {
		return BlankChar
	}
	for i, c := range CodeTable {
		if c != code {
			continue
		}
		if i == 0 {
			return BlankChar
		}
		return byte(' ' + i)
	}
	return InvalidChar
}

// Decoder accumulates dots and dashes into a code number. The bit stream
// is built least significant bit first: a dot appends 1, a dash 0 then 1.
type Decoder struct {
	code    uint16
	bitmask uint16
}

// NewDecoder creates a decoder with an empty accumulator
func NewDecoder() *Decoder {
	d := &Decoder{}
	d.Reset()
	return d
}

// Reset clears the accumulator
func (d *Decoder) Reset() {
	d.code = 0
	d.bitmask = 1
}

// Code returns the code number accumulated so far
func (d *Decoder) Code() uint16 {
	return d.code
}

// Step processes one symbol. It returns the decoded character and true
// on END_OF_CHAR and END_OF_WORD, and false for every other symbol.
func (d *Decoder) Step(sym Symbol) (byte, bool) {
	switch sym {
	case SymbolDash:
		d.bitmask <<= 1
		d.code |= d.bitmask
		d.bitmask <<= 1

	case SymbolDot:
		d.code |= d.bitmask
		d.bitmask <<= 1

	case SymbolEndOfChar:
		c := Lookup(d.code)
		d.Reset()
		return c, true

	case SymbolEndOfWord:
		return ' ', true
	}
	return 0, false
}
