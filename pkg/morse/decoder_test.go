// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// feed sends a dot/dash pattern followed by END_OF_CHAR
func feed(d *Decoder, pattern string) byte {
	for _, e := range pattern {
		var c byte
		var ok bool
		if e == '.' {
			c, ok = d.Step(SymbolDot)
		} else {
			c, ok = d.Step(SymbolDash)
		}
		if ok {
			return c
		}
	}
	c, _ := d.Step(SymbolEndOfChar)
	return c
}

// ============================================================
// Lookup Tests
// ============================================================

func TestLookup_Sentinels(t *testing.T) {
	assert.Equal(t, byte(BlankChar), Lookup(0), "no marks")
	assert.Equal(t, byte(BlankChar), Lookup(CodeTable[0]), "code stored at index 0")
	assert.Equal(t, byte(InvalidChar), Lookup(63), "six dots")
	assert.Equal(t, byte(InvalidChar), Lookup(0xFFFF))
}

func TestLookup_KnownCharacters(t *testing.T) {
	tests := []struct {
		code     uint16
		expected byte
	}{
		{1, 'E'},
		{2, 'T'},
		{5, 'A'},
		{22, 'K'},
		{47, '5'},
		{365, '.'},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Lookup(tt.code), "code %d", tt.code)
	}
}

func TestLookup_LinearScanTakesFirstMatch(t *testing.T) {
	for i, code := range CodeTable {
		if code == 0 {
			continue
		}
		want := byte(' ' + i)
		if i == 0 {
			want = BlankChar
		}
		assert.Equal(t, want, Lookup(code), "table index %d", i)
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func TestDecoder_L(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, byte('L'), feed(d, ".-.."))
	assert.Equal(t, uint16(0), d.Code(), "reset after END_OF_CHAR")
}

func TestDecoder_EmptyCharacterIsBlank(t *testing.T) {
	d := NewDecoder()
	c, ok := d.Step(SymbolEndOfChar)
	assert.True(t, ok)
	assert.Equal(t, byte('_'), c)
}

func TestDecoder_UnknownIsInvalid(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, byte('#'), feed(d, "......"))
	assert.Equal(t, byte('#'), feed(d, "--.--.--"))
}

func TestDecoder_EndOfWord(t *testing.T) {
	d := NewDecoder()
	d.Step(SymbolDot)
	c, ok := d.Step(SymbolEndOfWord)
	assert.True(t, ok)
	assert.Equal(t, byte(' '), c)
	assert.Equal(t, uint16(1), d.Code(), "word boundary leaves the accumulator alone")
}

func TestDecoder_NoCharacterForMarks(t *testing.T) {
	d := NewDecoder()
	for _, sym := range []Symbol{SymbolNone, SymbolDot, SymbolDash} {
		_, ok := d.Step(sym)
		assert.False(t, ok, "symbol %v", sym)
	}
}

func TestDecoder_LongSequenceDoesNotPanic(t *testing.T) {
	d := NewDecoder()
	for i := 0; i < 40; i++ {
		d.Step(SymbolDash)
	}
	c, ok := d.Step(SymbolEndOfChar)
	assert.True(t, ok)
	assert.Equal(t, byte(InvalidChar), c)
}

func TestDecoder_RoundTrip(t *testing.T) {
	var indices []int
	for i, code := range CodeTable {
		if code != 0 {
			indices = append(indices, i)
		}
	}

	rapid.Check(t, func(t *rapid.T) {
		i := rapid.SampledFrom(indices).Draw(t, "index")
		want := byte(' ' + i)
		if i == 0 {
			want = BlankChar
		}

		d := NewDecoder()
		if got := feed(d, patternOf(CodeTable[i])); got != want {
			t.Fatalf("pattern %q: got %q, want %q", patternOf(CodeTable[i]), got, want)
		}
	})
}
