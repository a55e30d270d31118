// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/sounder/pkg/morse"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{61 * time.Second, "1 minute and 1 second"},
		{2 * time.Hour, "2 hours"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1 day, 2 hours, 3 minutes, and 4 seconds"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.d))
	}
}

func newTestMonitor(t *testing.T) monitorModel {
	t.Helper()
	speed, err := morse.NewSpeedConfig(morse.DefaultTicRate, 0)
	require.NoError(t, err)
	return initialMonitorModel("screen", speed, morse.NewStatistics(speed.TicRate), true)
}

func update(t *testing.T, m monitorModel, msg tea.Msg) monitorModel {
	t.Helper()
	next, _ := m.Update(msg)
	mm, ok := next.(monitorModel)
	require.True(t, ok)
	return mm
}

func TestMonitorModel_Events(t *testing.T) {
	m := newTestMonitor(t)

	m = update(t, m, eventBatchMsg{events: []morse.Event{
		{Kind: morse.EventEdge, Edge: morse.EdgeFalling},
	}})
	assert.True(t, m.keyDown)

	m = update(t, m, eventBatchMsg{events: []morse.Event{
		{Kind: morse.EventEdge, Edge: morse.EdgeRising},
		{Kind: morse.EventSymbol, Symbol: morse.SymbolDash, Mark: 1950},
		{Kind: morse.EventSymbol, Symbol: morse.SymbolDot, Mark: 700},
	}})
	assert.False(t, m.keyDown)
	assert.Equal(t, "-.", string(m.current))
	assert.Equal(t, morse.Tic(700), m.lastMark)

	m = update(t, m, eventBatchMsg{events: []morse.Event{
		{Kind: morse.EventSymbol, Symbol: morse.SymbolEndOfChar},
		{Kind: morse.EventChar, Char: 'N'},
		{Kind: morse.EventChar, Char: morse.InvalidChar},
		{Kind: morse.EventOverrun, Char: '#'},
	}, dropped: 3})
	assert.Empty(t, m.current)
	assert.Equal(t, "N#", string(m.text))

	var messages []string
	for _, e := range m.eventLog {
		messages = append(messages, e.message)
	}
	assert.Equal(t, []string{
		"-.      ",
		"Unknown character",
		"TX OVERRUN: '#' dropped",
		"Display fell behind, 3 events skipped",
	}, messages)
}

func TestMonitorModel_Keys(t *testing.T) {
	m := newTestMonitor(t)
	m = update(t, m, eventBatchMsg{events: []morse.Event{{Kind: morse.EventChar, Char: 'E'}}})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Empty(t, m.text)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, m.quitting)
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestMonitorModel_View(t *testing.T) {
	m := newTestMonitor(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = update(t, m, eventBatchMsg{events: []morse.Event{
		{Kind: morse.EventChar, Char: 'S'},
		{Kind: morse.EventChar, Char: 'K'},
	}})
	m = update(t, m, pipelineDoneMsg{})

	view := m.View()
	assert.Contains(t, view, "SOUNDER - MONITOR")
	assert.Contains(t, view, "18 wpm")
	assert.Contains(t, view, "SK")
	assert.Contains(t, view, "Stopped")
	assert.Equal(t, 96, m.textView.Width)
	assert.Equal(t, 22, m.textView.Height)
}
