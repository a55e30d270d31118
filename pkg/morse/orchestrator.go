// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package morse

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

// inviteCode is K (-.-), "invitation to transmit", as a code number
const inviteCode = 22

// Config wires an Orchestrator
type Config struct {
	Clock       *TickClock
	Key         Input
	Indicator   Line // optional
	Transmitter *Transmitter
	Speed       SpeedConfig

	// PollInterval is slept between polls; zero only yields the processor.
	PollInterval time.Duration
	// Invite plays the start-up prosign on the indicator before polling.
	Invite bool

	Logger *log.Logger
}

// Orchestrator owns the pipeline stages and runs the poll loop
type Orchestrator struct {
	clock     *TickClock
	key       Input
	indicator Line
	edges     *EdgeDetector
	tokens    *Tokenizer
	decoder   *Decoder
	tx        *Transmitter
	timing    Timing
	speed     SpeedConfig
	stats     *Statistics
	observers []Observer
	logger    *log.Logger

	pollInterval time.Duration
	invite       bool
}

// New creates an orchestrator from cfg
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Clock == nil {
		return nil, errors.New("orchestrator: clock is required")
	}
	if cfg.Key == nil {
		return nil, errors.New("orchestrator: key input is required")
	}
	if cfg.Transmitter == nil {
		return nil, errors.New("orchestrator: transmitter is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	timing := cfg.Speed.Timing
	return &Orchestrator{
		clock:        cfg.Clock,
		key:          cfg.Key,
		indicator:    cfg.Indicator,
		edges:        NewEdgeDetector(timing.Debounce, cfg.Indicator),
		tokens:       NewTokenizer(timing),
		decoder:      NewDecoder(),
		tx:           cfg.Transmitter,
		timing:       timing,
		speed:        cfg.Speed,
		stats:        NewStatistics(cfg.Speed.TicRate),
		logger:       logger,
		pollInterval: cfg.PollInterval,
		invite:       cfg.Invite,
	}, nil
}

// Observe registers an observer. It must be called before Run.
func (o *Orchestrator) Observe(obs Observer) {
	o.observers = append(o.observers, obs)
}

// Statistics returns the pipeline statistics
func (o *Orchestrator) Statistics() *Statistics {
	return o.stats
}

// KeyDown reports the debounced key state
func (o *Orchestrator) KeyDown() bool {
	return o.edges.KeyDown()
}

// States returns the edge detector and tokenizer state names
func (o *Orchestrator) States() (edge, tokenizer string) {
	return o.edges.State(), o.tokens.State()
}

// Poll runs the pipeline once. It returns the character produced on this
// poll, if any; a character is returned even when the transmitter was
// still busy and it had to be dropped.
func (o *Orchestrator) Poll() (byte, bool) {
	now := o.clock.Now()

	edge := o.edges.Step(o.key.Asserted(), now)
	if edge != EdgeNone {
		o.emit(Event{Kind: EventEdge, Tic: now, Edge: edge})
	}

	sym := o.tokens.Step(edge, now)
	if sym != SymbolNone {
		e := Event{Kind: EventSymbol, Tic: now, Symbol: sym}
		if sym == SymbolDot || sym == SymbolDash {
			e.Mark = o.tokens.LastMark()
		}
		o.emit(e)
	}

	c, ok := o.decoder.Step(sym)
	if !ok {
		return 0, false
	}
	o.emit(Event{Kind: EventChar, Tic: now, Char: c})

	if err := o.tx.Send(c); err != nil {
		o.logger.Warn("dropped character", "char", string(rune(c)), "err", err)
		o.emit(Event{Kind: EventOverrun, Tic: now, Char: c})
	}
	return c, true
}

// Invite plays K on the indicator with blocking delays. The timer must
// already be running. It stops early, leaving the indicator off, when ctx
// is done.
func (o *Orchestrator) Invite(ctx context.Context) error {
	code := uint8(inviteCode)
	for code != 0 {
		o.setIndicator(true)
		if code&1 == 0 { // dash
			if err := o.clock.Delay(ctx, o.timing.Unit2); err != nil {
				o.setIndicator(false)
				return err
			}
			code >>= 1
		}
		if err := o.clock.Delay(ctx, o.timing.Unit1); err != nil {
			o.setIndicator(false)
			return err
		}
		code >>= 1
		o.setIndicator(false)
		if err := o.clock.Delay(ctx, o.timing.Unit1); err != nil {
			return err
		}
	}
	return nil
}

// Run plays the invitation, if enabled, then polls until ctx is done
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.invite {
		o.logger.Debug("sending invitation")
		if err := o.Invite(ctx); err != nil {
			return err
		}
	}
	o.logger.Info("decoding", "wpm", o.speed.WPM, "unit", o.timing.Unit1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		o.Poll()

		if o.pollInterval > 0 {
			time.Sleep(o.pollInterval)
		} else {
			runtime.Gosched()
		}
	}
}

func (o *Orchestrator) emit(e Event) {
	e.Elapsed = o.clock.Elapsed()
	o.stats.Observe(e)
	for _, obs := range o.observers {
		obs(e)
	}
}

func (o *Orchestrator) setIndicator(on bool) {
	if o.indicator != nil {
		o.indicator.Set(on)
	}
}
