// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/sounder/pkg/morse"
)

var (
	statsInterval int
	showSymbols   bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode the key and send the text to the output",
	Long: `Run the decoder on the GPIO key until interrupted.

Decoded characters go out on the serial line. Unless --tx-line drives a
GPIO, the serial line is looped back in software and written to the
serial port, WebSocket or stdout. Statistics are printed to stderr at
--stats-interval.`,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().IntVar(&statsInterval, "stats-interval", 60, "Statistics interval in seconds (0 disables)")
	decodeCmd.Flags().BoolVar(&showSymbols, "symbols", false, "Log every dot, dash and gap at debug level")
}

func runDecode(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	p, err := buildPipeline(cfg, nil, conn)
	if err != nil {
		return err
	}
	defer p.Close()

	if showSymbols {
		p.orch.Observe(logEvent)
	}

	fmt.Fprintf(os.Stderr, "Sounder - Decode\n")
	fmt.Fprintf(os.Stderr, "Speed: %d wpm (dot %d tics at %.0f Hz)\n", p.speed.WPM, p.speed.Timing.Unit1, p.speed.TicRate)
	fmt.Fprintf(os.Stderr, "Output: %s\n", connInfo)
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if statsInterval > 0 {
		go printStatistics(ctx, p.orch.Statistics(), time.Duration(statsInterval)*time.Second)
	}

	err = p.Run(ctx)
	fmt.Fprintln(os.Stderr)
	fmt.Fprint(os.Stderr, p.orch.Statistics().String())
	return err
}

// printStatistics prints a statistics summary every interval
func printStatistics(ctx context.Context, stats *morse.Statistics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintln(os.Stderr)
			fmt.Fprint(os.Stderr, stats.String())
		}
	}
}

// logEvent logs a pipeline event at debug level
func logEvent(e morse.Event) {
	switch e.Kind {
	case morse.EventSymbol:
		logger.Debug("symbol", "tic", e.Tic, "symbol", e.Symbol, "mark", e.Mark)
	case morse.EventChar:
		logger.Debug("char", "tic", e.Tic, "char", string(rune(e.Char)))
	}
}
