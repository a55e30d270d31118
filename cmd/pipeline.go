// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Thermoquad/sounder/pkg/morse"
	"github.com/Thermoquad/sounder/pkg/pins"
	"github.com/Thermoquad/sounder/pkg/trace"
)

// keySource creates the key input once the clock and speed are known.
// A nil keySource reads the key line of the GPIO board.
type keySource func(clock *morse.TickClock, speed morse.SpeedConfig) (morse.Input, error)

// pipeline is a decoder wired to its inputs and outputs
type pipeline struct {
	clock *morse.TickClock
	tx    *morse.Transmitter
	rx    *morse.FrameReceiver
	out   *morse.OutputQueue
	timer *morse.Timer
	orch  *morse.Orchestrator
	speed morse.SpeedConfig
	board pins.Board
	trace *trace.Recorder

	closers []io.Closer
}

// buildPipeline wires a decoder from the configuration. With a key source
// no GPIO board is opened: the key is simulated, the speed comes from the
// configuration (unset speed lines float high) and the serial line loops
// back into out.
func buildPipeline(c Config, key keySource, out io.Writer) (*pipeline, error) {
	p := &pipeline{clock: morse.NewTickClock()}
	ready := false
	defer func() {
		if !ready {
			p.Close()
		}
	}()

	var err error
	var indicator, txLine morse.Line
	if key == nil {
		if p.board, err = pins.Open(c.Backend, c.Chip); err != nil {
			return nil, err
		}
		p.closers = append(p.closers, p.board)

		if p.speed, err = p.selectSpeed(c); err != nil {
			return nil, err
		}
		keyInput, err := p.board.Input(c.KeyLine, true)
		if err != nil {
			return nil, fmt.Errorf("key line: %w", err)
		}
		key = func(*morse.TickClock, morse.SpeedConfig) (morse.Input, error) {
			return keyInput, nil
		}
		if c.IndicatorLine != "" {
			if indicator, err = p.board.Output(c.IndicatorLine, false); err != nil {
				return nil, fmt.Errorf("indicator line: %w", err)
			}
		}
		if c.TXLine != "" {
			if txLine, err = p.board.Output(c.TXLine, true); err != nil {
				return nil, fmt.Errorf("tx line: %w", err)
			}
		}
	} else {
		index := c.SpeedIndex
		if index == speedFromLines {
			index = int(morse.SpeedIndex(true, true))
		}
		if p.speed, err = morse.NewSpeedConfig(c.TicRate, uint8(index)); err != nil {
			return nil, err
		}
	}

	if txLine == nil {
		p.out = morse.NewOutputQueue(out, morse.DefaultOutputQueueSize)
		p.rx = morse.NewFrameReceiver(p.out)
		txLine = p.rx
	}
	p.tx = morse.NewTransmitter(txLine)
	p.timer = morse.NewTimer(p.clock, p.tx, c.TicRate, c.TimerGranularity)

	keyInput, err := key(p.clock, p.speed)
	if err != nil {
		return nil, err
	}
	p.orch, err = morse.New(morse.Config{
		Clock:        p.clock,
		Key:          keyInput,
		Indicator:    indicator,
		Transmitter:  p.tx,
		Speed:        p.speed,
		PollInterval: c.PollInterval,
		Invite:       c.Invite && indicator != nil,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	if c.TracePath != "" {
		f, err := os.Create(c.TracePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace: %w", err)
		}
		p.closers = append(p.closers, f)
		p.trace, err = trace.NewRecorder(f, trace.Header{TicRate: p.speed.TicRate, WPM: p.speed.WPM})
		if err != nil {
			return nil, err
		}
		p.orch.Observe(p.trace.Observe)
	}

	logger.Debug("pipeline ready",
		"wpm", p.speed.WPM,
		"unit", p.speed.Timing.Unit1,
		"debounce", p.speed.Timing.Debounce,
		"half_period", p.timer.HalfPeriod())
	ready = true
	return p, nil
}

// selectSpeed reads the selector lines once, or uses the fixed index
func (p *pipeline) selectSpeed(c Config) (morse.SpeedConfig, error) {
	if c.SpeedIndex != speedFromLines {
		b0, b1 := pins.SpeedInputs(uint8(c.SpeedIndex))
		return morse.SelectSpeed(c.TicRate, b0, b1)
	}
	b0, err := p.board.Input(c.Speed0Line, false)
	if err != nil {
		return morse.SpeedConfig{}, fmt.Errorf("speed line 0: %w", err)
	}
	b1, err := p.board.Input(c.Speed1Line, false)
	if err != nil {
		return morse.SpeedConfig{}, fmt.Errorf("speed line 1: %w", err)
	}
	return morse.SelectSpeed(c.TicRate, b0, b1)
}

// Run starts the timer, the output writer and the poll loop and returns
// when ctx is done. The output is flushed after the timer has stopped.
func (p *pipeline) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outCtx, stopOutput := context.WithCancel(context.Background())
	defer stopOutput()

	var outWg sync.WaitGroup
	if p.out != nil {
		outWg.Add(1)
		go func() {
			defer outWg.Done()
			p.out.Run(outCtx)
		}()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.timer.Run(ctx)
	}()

	err := p.orch.Run(ctx)
	cancel()
	wg.Wait()
	stopOutput()
	outWg.Wait()

	if p.out != nil && p.out.Dropped() > 0 {
		logger.Warn("output fell behind", "dropped", p.out.Dropped())
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(err, p.Err())
}

// flush writes queued output on the calling goroutine, for loops that
// step the clock themselves
func (p *pipeline) flush() error {
	if p.out == nil {
		return nil
	}
	return p.out.Flush()
}

// Err returns the first hardware, loopback or trace error
func (p *pipeline) Err() error {
	var errs []error
	if p.board != nil {
		errs = append(errs, p.board.Err())
	}
	if p.rx != nil {
		errs = append(errs, p.rx.Err())
	}
	if p.out != nil {
		errs = append(errs, p.out.Err())
	}
	if p.trace != nil {
		errs = append(errs, p.trace.Err())
	}
	return errors.Join(errs...)
}

// Close releases the board and the trace file
func (p *pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i].Close())
	}
	p.closers = nil
	return errors.Join(errs...)
}
