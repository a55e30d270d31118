// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/sounder/pkg/keying"
	"github.com/Thermoquad/sounder/pkg/morse"
)

var (
	monitorScript  string
	monitorBounce  uint32
	monitorSymbols bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Decode with a live terminal UI",
	Long: `Run the decoder and show the key state, the decoded text, keying
statistics and events in a terminal UI.

The output is written as with the decode command, except that stdout is
replaced by the UI itself. --script plays a text through a simulated key
at the tick rate instead of reading the GPIO key.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorScript, "script", "", "Text to play through a simulated key")
	monitorCmd.Flags().Uint32Var(&monitorBounce, "bounce", 0, "Contact bounce for --script, in tics")
	monitorCmd.Flags().BoolVar(&monitorSymbols, "symbols", false, "Log the dots and dashes of every character")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	var out io.Writer = conn
	if _, ok := conn.(stdoutConnection); ok {
		out = io.Discard
		connInfo = "screen"
	}

	var key keySource
	if monitorScript != "" {
		key = func(clock *morse.TickClock, speed morse.SpeedConfig) (morse.Input, error) {
			var opts []keying.Option
			if monitorBounce > 0 {
				opts = append(opts, keying.WithBounce(monitorBounce))
			}
			return keying.NewScript(clock, monitorScript, speed.Timing.Unit1, opts...)
		}
	}

	// The UI owns the terminal; keep log output off it
	logger.SetOutput(io.Discard)

	p, err := buildPipeline(cfg, key, out)
	if err != nil {
		return err
	}
	defer p.Close()

	m := initialMonitorModel(connInfo, p.speed, p.orch.Statistics(), monitorSymbols)
	prog := tea.NewProgram(m)

	fwd := newEventForwarder(prog)
	p.orch.Observe(fwd.observe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go fwd.run(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := p.Run(ctx)
		prog.Send(pipelineDoneMsg{err: err})
	}()

	_, err = prog.Run()

	// The pipeline still reads the lines and writes the output until it
	// has stopped; close nothing before that
	cancel()
	<-done

	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// eventForwarder moves events from the poll loop to the UI. The observer
// never blocks; when the buffer is full events are counted and dropped.
type eventForwarder struct {
	prog    *tea.Program
	events  chan morse.Event
	dropped atomic.Uint64
}

func newEventForwarder(prog *tea.Program) *eventForwarder {
	return &eventForwarder{
		prog:   prog,
		events: make(chan morse.Event, 4096),
	}
}

func (f *eventForwarder) observe(e morse.Event) {
	select {
	case f.events <- e:
	default:
		f.dropped.Add(1)
	}
}

// run sends events to the UI in batches every 50ms
func (f *eventForwarder) run(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var batch []morse.Event
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-f.events:
			batch = append(batch, e)
		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
			f.prog.Send(eventBatchMsg{events: batch, dropped: f.dropped.Load()})
			batch = nil
		}
	}
}
