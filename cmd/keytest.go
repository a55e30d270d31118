// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/sounder/pkg/morse"
)

var (
	keyTestTimeout int
)

var keyTestCmd = &cobra.Command{
	Use:   "key_test",
	Short: "Test the key by waiting for a decoded character",
	Long: `Wait for the first decoded character until timeout.

This command opens the GPIO lines and runs the decoder until the key
produces one character, which is printed with its code number. Nothing is
written to the output.

Exit codes:
  0 - Character decoded before timeout
  1 - Timeout reached without a character
  2 - Hardware or configuration error

Useful for checking the key wiring and the speed jumpers.`,
	RunE: runKeyTest,
}

func init() {
	rootCmd.AddCommand(keyTestCmd)
	keyTestCmd.Flags().IntVar(&keyTestTimeout, "timeout", 30, "Timeout in seconds to wait for a character")
}

func runKeyTest(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(cfg, nil, io.Discard)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hardware error: %v\n", err)
		os.Exit(2)
	}
	defer p.Close()

	fmt.Printf("Sounder - Key Test\n")
	fmt.Printf("Speed: %d wpm\n", p.speed.WPM)
	fmt.Printf("Timeout: %d seconds\n", keyTestTimeout)
	fmt.Printf("Key a character...\n\n")

	charChan := make(chan morse.Event, 1)
	var marks []morse.Tic
	p.orch.Observe(func(e morse.Event) {
		switch e.Kind {
		case morse.EventSymbol:
			if e.Symbol == morse.SymbolDot || e.Symbol == morse.SymbolDash {
				marks = append(marks, e.Mark)
			}
		case morse.EventChar:
			select {
			case charChan <- e:
			default:
			}
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(keyTestTimeout)*time.Second)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- p.Run(ctx)
	}()

	select {
	case e := <-charChan:
		cancel()
		<-errChan
		fmt.Printf("SUCCESS: Decoded %q\n", e.Char)
		fmt.Printf("  Marks: %v tics\n", marks)
		fmt.Printf("  Dot: %d tics, dash threshold %d tics\n", p.speed.Timing.Unit1, p.speed.Timing.Unit2)
		p.Close()
		os.Exit(0)

	case err := <-errChan:
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintf(os.Stderr, "Hardware error: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "TIMEOUT: No character decoded within %d seconds\n", keyTestTimeout)
		os.Exit(1)
	}

	return nil
}
