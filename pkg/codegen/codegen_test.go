// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codegen

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Thermoquad/sounder/pkg/morse"
)

// ============================================================
// Code Numbers
// ============================================================

func TestCodeNumber(t *testing.T) {
	tests := []struct {
		pattern string
		code    uint16
	}{
		{"", 0},
		{".", 1},
		{"-", 2},
		{".-", 5},
		{"-.-", 22},
		{"...", 7},
		{"---", 42},
		{"..--.-", 363},
	}
	for _, tt := range tests {
		code, err := CodeNumber(tt.pattern)
		require.NoError(t, err, tt.pattern)
		assert.Equal(t, tt.code, code, tt.pattern)
	}
}

func TestCodeNumber_Errors(t *testing.T) {
	_, err := CodeNumber(".x-")
	assert.ErrorIs(t, err, ErrBadSymbol)

	// Nine dashes need 18 bits
	_, err = CodeNumber("---------")
	assert.ErrorIs(t, err, ErrCodeTooLarge)

	// Sixteen dots still fit
	_, err = CodeNumber(strings.Repeat(".", 16))
	assert.NoError(t, err)
}

func TestPattern_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := rapid.StringMatching(`[.-]{0,7}`).Draw(t, "pattern")
		code, err := CodeNumber(p)
		if err != nil {
			t.Fatalf("CodeNumber(%q): %v", p, err)
		}
		if got := Pattern(code); got != p {
			t.Fatalf("Pattern(%d) = %q, want %q", code, got, p)
		}
	})
}

// ============================================================
// Tables
// ============================================================

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("- {char: AB, code: .-}"))
	assert.ErrorIs(t, err, ErrBadChar)

	_, err = Parse([]byte("not: [a list"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	entries, err := Parse([]byte(`
- {char: "E", code: "."}
- {char: "E", code: "-"}
- {char: "_", code: "..--.-"}
- {char: "T", code: "-"}
`))
	require.NoError(t, err)

	table, err := Build(entries)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), table['E'-' '], "first entry wins")
	assert.Equal(t, uint16(2), table['T'-' '])
	assert.Equal(t, uint16(363), table[0])
	assert.Zero(t, table['A'-' '])
}

func TestBuild_RejectsBadCode(t *testing.T) {
	_, err := Build([]Entry{{Char: "A", Code: ".*"}})
	assert.ErrorIs(t, err, ErrBadSymbol)
}

func TestDefault_MatchesDecoderTable(t *testing.T) {
	entries, err := Default()
	require.NoError(t, err)
	table, err := Build(entries)
	require.NoError(t, err)

	require.Equal(t, morse.CodeTableLength, TableLength)
	assert.Equal(t, morse.CodeTable, [morse.CodeTableLength]uint16(table))
}

func TestPatterns(t *testing.T) {
	entries, err := Default()
	require.NoError(t, err)
	table, err := Build(entries)
	require.NoError(t, err)

	patterns := table.Patterns()
	assert.Equal(t, "...", patterns['S'])
	assert.Equal(t, "-.-", patterns['K'])
	assert.Equal(t, "..--.-", patterns['_'])
	assert.NotContains(t, patterns, byte('#'))
	assert.NotContains(t, patterns, byte(' '))
	assert.Len(t, patterns, len(entries))
}

// ============================================================
// Source Generation
// ============================================================

func TestGenerate_MatchesCheckedInSource(t *testing.T) {
	entries, err := Default()
	require.NoError(t, err)
	table, err := Build(entries)
	require.NoError(t, err)

	src, err := Generate(table, "morse")
	require.NoError(t, err)

	checkedIn, err := os.ReadFile("../morse/code_table.go")
	require.NoError(t, err)
	assert.Equal(t, string(checkedIn), string(src), "run go generate ./pkg/morse")
}
