// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package codegen builds the decoder's code table from a raw list of
// characters and their dot/dash patterns.
package codegen

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"go/format"

	"gopkg.in/yaml.v3"
)

// TableLength covers every ASCII character from ' ' to 'Z'
const TableLength = int('Z'-' ') + 1

// blankSlot is the character stored at index 0 of the table
const blankSlot = '_'

// Errors returned while building a table
var (
	ErrBadSymbol    = errors.New("symbol other than '.' or '-' in code")
	ErrCodeTooLarge = errors.New("code number does not fit in 16 bits")
	ErrBadChar      = errors.New("char must be a single ASCII character")
)

//go:embed morse_code.yaml
var defaultTable []byte

// Entry is one raw table entry
type Entry struct {
	Char string `yaml:"char"`
	Code string `yaml:"code"`
}

// Table is the generated code table, indexed by c - ' '
type Table [TableLength]uint16

// Parse reads a YAML list of entries
func Parse(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse raw table: %w", err)
	}
	for i, e := range entries {
		if len(e.Char) != 1 || e.Char[0] > 0x7F {
			return nil, fmt.Errorf("entry %d (%q): %w", i, e.Char, ErrBadChar)
		}
	}
	return entries, nil
}

// Default returns the embedded raw table
func Default() ([]Entry, error) {
	return Parse(defaultTable)
}

// CodeNumber converts a dot/dash pattern to its code number: read from
// the least significant bit, a dot is 1 and a dash is 01. The first
// unused 1 bit is the implicit terminator.
func CodeNumber(pattern string) (uint16, error) {
	var code, bitmask uint32 = 0, 1
	for _, s := range pattern {
		switch s {
		case '-':
			bitmask <<= 1
		case '.':
		default:
			return 0, fmt.Errorf("%w: %q", ErrBadSymbol, s)
		}
		code |= bitmask
		bitmask <<= 1
		if code > 0xFFFF {
			return 0, fmt.Errorf("%w: %q", ErrCodeTooLarge, pattern)
		}
	}
	return uint16(code), nil
}

// Pattern converts a code number back to dots and dashes
func Pattern(code uint16) string {
	var p []byte
	for code != 0 {
		if code&1 == 1 {
			p = append(p, '.')
			code >>= 1
		} else {
			p = append(p, '-')
			code >>= 2
		}
	}
	return string(p)
}

// Build converts raw entries to a table. Characters without an entry get
// code 0; when a character is listed twice the first entry wins.
func Build(entries []Entry) (Table, error) {
	var table Table
	numbers := make(map[byte]uint16, len(entries))
	for _, e := range entries {
		code, err := CodeNumber(e.Code)
		if err != nil {
			return table, fmt.Errorf("char %q: %w", e.Char, err)
		}
		if _, seen := numbers[e.Char[0]]; !seen {
			numbers[e.Char[0]] = code
		}
	}

	for i := range table {
		c := byte(' ' + i)
		if i == 0 {
			c = blankSlot
		}
		table[i] = numbers[c]
	}
	return table, nil
}

// Patterns maps every character of the table that has a code to its
// dot/dash pattern. The blank slot is reported as '_'.
func (t Table) Patterns() map[byte]string {
	out := make(map[byte]string, TableLength)
	for i, code := range t {
		if code == 0 {
			continue
		}
		c := byte(' ' + i)
		if i == 0 {
			c = blankSlot
		}
		out[c] = Pattern(code)
	}
	return out
}

// Generate renders the table as Go source for package pkg
func Generate(table Table, pkg string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("// Code generated by sounder gen_table; DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	buf.WriteString("// CodeTableLength is the number of entries in CodeTable\n")
	fmt.Fprintf(&buf, "const CodeTableLength = %d\n\n", TableLength)
	buf.WriteString("// CodeTable maps ASCII ' '+i to its code number. Index 0 holds the code\n")
	buf.WriteString("// of '_'; a zero entry is a character with no Morse code.\n")
	buf.WriteString("var CodeTable = [CodeTableLength]uint16{\n")
	for i, code := range table {
		if i%12 == 0 {
			buf.WriteString("\t")
		}
		fmt.Fprintf(&buf, "%d,", code)
		if i%12 == 11 || i == len(table)-1 {
			buf.WriteString("\n")
		} else {
			buf.WriteString(" ")
		}
	}
	buf.WriteString("}\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated source: %w", err)
	}
	return src, nil
}
