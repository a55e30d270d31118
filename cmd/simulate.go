// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/sounder/pkg/keying"
	"github.com/Thermoquad/sounder/pkg/morse"
)

var (
	simBounce   uint32
	simRealtime bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [text]",
	Short: "Decode text played through a simulated key",
	Long: `Key the given text (or stdin) with ideal timing and decode it.

The simulated key runs at the configured speed (--speed, default 5 wpm
as with floating selector lines). By default the clock is stepped as fast
as possible; --realtime runs the timer at the tick rate instead. --bounce
adds contact chatter for the given number of tics after every release.

The decoded text goes to the output like the decode command; statistics
are printed to stderr.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Uint32Var(&simBounce, "bounce", 0, "Contact bounce after each release, in tics")
	simulateCmd.Flags().BoolVar(&simRealtime, "realtime", false, "Run at the tick rate instead of as fast as possible")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(b)
	}

	conn, _, err := OpenConnection(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counters, err := simulate(ctx, cfg, text, simBounce, simRealtime, conn)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Characters: %d, words: %d, invalid: %d, overruns: %d, measured %.1f wpm\n",
		counters.Characters, counters.Words, counters.InvalidChars, counters.Overruns, counters.EstimatedWPM())
	return nil
}

// simulate plays text through a script key and the full pipeline,
// writing the looped-back serial output to out
func simulate(ctx context.Context, c Config, text string, bounce uint32, realtime bool, out io.Writer) (morse.Counters, error) {
	c.Invite = false
	var script *keying.Script
	key := func(clock *morse.TickClock, speed morse.SpeedConfig) (morse.Input, error) {
		if bounce >= uint32(speed.Timing.Debounce) {
			logger.Warn("bounce is not shorter than the debounce time", "bounce", bounce, "debounce", speed.Timing.Debounce)
		}
		var opts []keying.Option
		if bounce > 0 {
			opts = append(opts, keying.WithBounce(bounce))
		}
		var err error
		script, err = keying.NewScript(clock, text, speed.Timing.Unit1, opts...)
		return script, err
	}

	p, err := buildPipeline(c, key, out)
	if err != nil {
		return morse.Counters{}, err
	}
	defer p.Close()
	logger.Debug("simulating", "text", script.Text(), "tics", script.Duration())

	if realtime {
		err = runRealtime(ctx, p, script)
	} else {
		err = runStepped(ctx, p, script)
	}
	if err != nil {
		return morse.Counters{}, err
	}
	return p.orch.Statistics().Snapshot(), p.Err()
}

// runStepped interleaves the clock tick, the transmit tick and one poll,
// writing the output between batches of tics
func runStepped(ctx context.Context, p *pipeline, script *keying.Script) error {
	for n := 0; !script.Done(); n++ {
		if n%4096 == 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.flush()
		}
		p.clock.Tick()
		p.tx.Tick()
		p.orch.Poll()
	}
	for p.tx.Busy() {
		p.tx.Tick()
	}
	p.flush()
	return nil
}

// runRealtime runs the timer and the poll loop until the script is done
// and the last character has been sent
func runRealtime(ctx context.Context, p *pipeline, script *keying.Script) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if script.Done() && !p.tx.Busy() {
					cancel()
					return
				}
			}
		}
	}()

	return p.Run(ctx)
}
