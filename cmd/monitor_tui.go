// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/sounder/pkg/morse"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for information
}

// TUI model
type monitorModel struct {
	connInfo      string
	speed         morse.SpeedConfig
	showSymbols   bool
	stats         *morse.Statistics
	started       time.Time
	eventLog      []eventLogEntry
	maxLogEntries int
	text          []byte
	current       []byte // dots and dashes of the character being keyed
	textView      viewport.Model
	keyDown       bool
	lastMark      morse.Tic
	dropped       uint64
	finished      bool
	width         int
	height        int
	quitting      bool
}

// Messages
type monitorTickMsg time.Time
type eventBatchMsg struct {
	events  []morse.Event
	dropped uint64
}
type pipelineDoneMsg struct {
	err error
}

// Fixed rows outside the text view: title, header, key line, stats box,
// event log title and box
const monitorChromeHeight = 18

// formatUptime formats a duration as a human-friendly string
func formatUptime(d time.Duration) string {
	seconds := int64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialMonitorModel(connInfo string, speed morse.SpeedConfig, stats *morse.Statistics, showSymbols bool) monitorModel {
	return monitorModel{
		connInfo:      connInfo,
		speed:         speed,
		showSymbols:   showSymbols,
		stats:         stats,
		started:       time.Now(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		textView:      viewport.New(76, 6),
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.text = m.text[:0]
			m.refreshText()
			return m, nil
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
			return m, nil
		}
		var cmd tea.Cmd
		m.textView, cmd = m.textView.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textView.Width = max(msg.Width-4, 10)
		m.textView.Height = max(msg.Height-monitorChromeHeight, 3)
		m.refreshText()

	case monitorTickMsg:
		return m, monitorTickCmd()

	case eventBatchMsg:
		for _, e := range msg.events {
			m.handleEvent(e)
		}
		if msg.dropped > m.dropped {
			m.addLogEntry(fmt.Sprintf("Display fell behind, %d events skipped", msg.dropped-m.dropped), true)
			m.dropped = msg.dropped
		}
		m.refreshText()

	case pipelineDoneMsg:
		m.finished = true
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Decoder stopped: %v", msg.err), true)
		} else {
			m.addLogEntry("Decoder stopped", false)
		}
	}

	return m, nil
}

// handleEvent applies one pipeline event to the model
func (m *monitorModel) handleEvent(e morse.Event) {
	switch e.Kind {
	case morse.EventEdge:
		m.keyDown = e.Edge == morse.EdgeFalling

	case morse.EventSymbol:
		switch e.Symbol {
		case morse.SymbolDot:
			m.current = append(m.current, '.')
			m.lastMark = e.Mark
		case morse.SymbolDash:
			m.current = append(m.current, '-')
			m.lastMark = e.Mark
		case morse.SymbolEndOfChar:
			if m.showSymbols {
				m.addLogEntry(fmt.Sprintf("%-8s", m.current), false)
			}
			m.current = m.current[:0]
		}

	case morse.EventChar:
		m.text = append(m.text, e.Char)
		if e.Char == morse.InvalidChar {
			m.addLogEntry("Unknown character", true)
		}

	case morse.EventOverrun:
		m.addLogEntry(fmt.Sprintf("TX OVERRUN: %q dropped", e.Char), true)
	}
}

func (m *monitorModel) refreshText() {
	m.textView.SetContent(lipgloss.NewStyle().Width(m.textView.Width).Render(string(m.text)))
	m.textView.GotoBottom()
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("SOUNDER - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Output: %s | %d wpm | Up: %s | 'c' clear, 'r' reset, 'q' quit",
		m.connInfo, m.speed.WPM, formatUptime(time.Since(m.started)))))
	s.WriteString("\n\n")

	// Key status
	switch {
	case m.finished:
		s.WriteString(warningStyle.Render("■ Stopped"))
	case m.keyDown:
		s.WriteString(errorStyle.Render("● KEY DOWN"))
	default:
		s.WriteString(statsValueStyle.Render("○ key up"))
	}
	s.WriteString("  ")
	s.WriteString(statsValueStyle.Render(string(m.current)))
	s.WriteString("\n\n")

	// Decoded text
	s.WriteString(boxStyle.Render(m.textView.View()))
	s.WriteString("\n")

	// Statistics
	c := m.stats.Snapshot()
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Chars:"), statsValueStyle.Render(fmt.Sprintf("%d", c.Characters)),
		statsLabelStyle.Render("Words:"), statsValueStyle.Render(fmt.Sprintf("%d", c.Words)),
		statsLabelStyle.Render("Invalid:"), func() string {
			if c.InvalidChars > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", c.InvalidChars))
			}
			return statsValueStyle.Render("0")
		}(),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Dot:"), statsValueStyle.Render(fmt.Sprintf("%d tics", m.speed.Timing.Unit1)),
		statsLabelStyle.Render("Last mark:"), statsValueStyle.Render(fmt.Sprintf("%d tics", m.lastMark)),
		statsLabelStyle.Render("Keying:"), statsValueStyle.Render(fmt.Sprintf("%.1f wpm", c.EstimatedWPM())),
	))
	if c.Overruns > 0 {
		statsContent.WriteString(fmt.Sprintf("   %s %s",
			statsLabelStyle.Render("Overruns:"), errorStyle.Render(fmt.Sprintf("%d", c.Overruns))))
	}
	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := 4
	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(max(m.width-4, 10)).Render(logContent.String()))

	return s.String()
}
