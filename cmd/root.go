// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfg        = DefaultConfig()
	configPath string
	logger     = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
)

var rootCmd = &cobra.Command{
	Use:   "sounder",
	Short: "Morse Key Decoder",
	Long: `Sounder - Decode a hand keyed telegraph signal into text.

A straight key closes a GPIO line to ground. Sounder debounces it, times
the marks and gaps against the configured speed, decodes the characters
and bit-bangs them out as 8N1 serial at the tick rate (9600 baud by
default). Two speed selector lines pick 18, 12, 8 or 5 wpm at start-up.

The serial line is either a GPIO output (--tx-line) or looped back in
software and written to:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]
  stdout:    (default)

Configuration is read from ~/.sounder/config.toml (or --config), then
SOUNDER_* environment variables, then flags. For WebSocket
authentication, the password is read from the SOUNDER_PASSWORD
environment variable, or prompted interactively if not set.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if err := loadConfig(&cfg, configPath, changed); err != nil {
			return err
		}
		level, _ := log.ParseLevel(cfg.LogLevel)
		logger.SetLevel(level)
		logger.Debug("configuration", "config", cfg)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default ~/.sounder/config.toml)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	// Serial connection flags
	flags.StringVarP(&cfg.Port, "port", "p", "", "Serial port device")
	flags.IntVarP(&cfg.Baud, "baud", "b", cfg.Baud, "Baud rate (serial only)")

	// WebSocket connection flags
	flags.StringVarP(&cfg.URL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.StringVar(&cfg.Username, "username", "", "Username for HTTP Basic auth")
	flags.BoolVar(&cfg.NoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Hardware flags
	flags.StringVar(&cfg.Backend, "backend", cfg.Backend, "GPIO backend (gpiocdev, periph)")
	flags.StringVar(&cfg.Chip, "chip", cfg.Chip, "GPIO chip (gpiocdev only)")
	flags.StringVar(&cfg.KeyLine, "key-line", cfg.KeyLine, "Key input line, active low")
	flags.StringVar(&cfg.IndicatorLine, "indicator-line", cfg.IndicatorLine, "Indicator output line (optional)")
	flags.StringVar(&cfg.TXLine, "tx-line", cfg.TXLine, "Serial TX output line (optional, loops back in software if unset)")
	flags.StringVar(&cfg.Speed0Line, "speed0-line", cfg.Speed0Line, "Speed selector bit 0 line")
	flags.StringVar(&cfg.Speed1Line, "speed1-line", cfg.Speed1Line, "Speed selector bit 1 line")
	flags.IntVar(&cfg.SpeedIndex, "speed", cfg.SpeedIndex, "Fixed speed index 0-3 (18, 12, 8, 5 wpm), -1 reads the speed lines")

	// Timing flags
	flags.Float64Var(&cfg.TicRate, "tic-rate", cfg.TicRate, "Tick rate in Hz, also the serial baud rate")
	flags.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "Sleep between polls (0 only yields)")
	flags.DurationVar(&cfg.TimerGranularity, "granularity", cfg.TimerGranularity, "Timer wake-up interval")
	flags.BoolVar(&cfg.Invite, "invite", cfg.Invite, "Flash K on the indicator at start-up")
	flags.StringVar(&cfg.TracePath, "trace", "", "Record pipeline events to a CBOR trace file")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
