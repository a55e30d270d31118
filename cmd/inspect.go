// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/sounder/pkg/morse"
	"github.com/Thermoquad/sounder/pkg/trace"
)

var (
	inspectKinds   []string
	inspectSummary bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <trace.cbor>",
	Short: "Print a recorded event trace",
	Long: `Print the events of a trace recorded with --trace, one per line,
followed by the decoded text and statistics.

--kinds limits the listing to some event kinds (edge, symbol, char,
overrun). --summary prints only the text and statistics.`,
	Args:             cobra.ExactArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	RunE:             runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringSliceVar(&inspectKinds, "kinds", nil, "Event kinds to list (default all)")
	inspectCmd.Flags().BoolVar(&inspectSummary, "summary", false, "Only print the decoded text and statistics")
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	h, events, err := trace.ReadAll(f)
	if err != nil && len(events) == 0 {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] trace truncated after %d events: %v\n", len(events), err)
	}

	kinds, err := parseKinds(inspectKinds)
	if err != nil {
		return err
	}

	fmt.Println(trace.FormatHeader(h))
	var text []byte
	for _, e := range events {
		if e.Kind == morse.EventChar {
			text = append(text, e.Char)
		}
		if inspectSummary || (len(kinds) > 0 && !kinds[e.Kind]) {
			continue
		}
		fmt.Println(trace.FormatEvent(h, e))
	}

	c := trace.Summarize(h, events)
	fmt.Printf("\nText: %s\n", text)
	fmt.Printf("Dots / Dashes: %d / %d, characters: %d, words: %d, invalid: %d, overruns: %d\n",
		c.Dots, c.Dashes, c.Characters, c.Words, c.InvalidChars, c.Overruns)
	fmt.Printf("Mean dot: %.1f tics (%.1f wpm)\n", c.MeanDot(), c.EstimatedWPM())
	return nil
}

// parseKinds converts event kind names to a set
func parseKinds(names []string) (map[morse.EventKind]bool, error) {
	all := []morse.EventKind{morse.EventEdge, morse.EventSymbol, morse.EventChar, morse.EventOverrun}
	kinds := make(map[morse.EventKind]bool)
	for _, name := range names {
		found := false
		for _, k := range all {
			if strings.EqualFold(name, k.String()) {
				kinds[k] = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown event kind %q", name)
		}
	}
	return kinds, nil
}
