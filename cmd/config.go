// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/Thermoquad/sounder/pkg/morse"
	"github.com/Thermoquad/sounder/pkg/pins"
)

// speedFromLines selects the speed from the two selector lines
const speedFromLines = -1

// Config holds everything needed to build a decoding pipeline
type Config struct {
	TicRate float64

	Backend       string
	Chip          string
	KeyLine       string
	IndicatorLine string
	TXLine        string
	Speed0Line    string
	Speed1Line    string
	SpeedIndex    int

	PollInterval     time.Duration
	TimerGranularity time.Duration
	Invite           bool
	TracePath        string
	LogLevel         string

	// Output sink for the looped-back serial line
	Port        string
	Baud        int
	URL         string
	Username    string
	NoSSLVerify bool
}

// DefaultConfig returns a Config with default values: a Raspberry Pi
// style header with the key on line 17 and the speed jumpers on 27/22.
func DefaultConfig() Config {
	return Config{
		TicRate:          morse.DefaultTicRate,
		Backend:          pins.BackendGPIOCDev,
		Chip:             "gpiochip0",
		KeyLine:          "17",
		IndicatorLine:    "",
		Speed0Line:       "27",
		Speed1Line:       "22",
		SpeedIndex:       speedFromLines,
		PollInterval:     0,
		TimerGranularity: time.Millisecond,
		Invite:           true,
		LogLevel:         "info",
		Baud:             9600,
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.TicRate <= 0 {
		return fmt.Errorf("tic rate must be positive")
	}
	switch c.Backend {
	case pins.BackendGPIOCDev, pins.BackendPeriph:
	default:
		return fmt.Errorf("%w: %q", pins.ErrUnknownBackend, c.Backend)
	}
	if c.KeyLine == "" {
		return fmt.Errorf("key line is required")
	}
	if c.SpeedIndex < speedFromLines || c.SpeedIndex >= len(morse.KeyRates) {
		return fmt.Errorf("speed index %d out of range (0-%d, or -1 to read the speed lines)",
			c.SpeedIndex, len(morse.KeyRates)-1)
	}
	if c.SpeedIndex == speedFromLines && (c.Speed0Line == "" || c.Speed1Line == "") {
		return fmt.Errorf("both speed lines are required when the speed is not fixed")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}
	if c.TimerGranularity < 0 {
		return fmt.Errorf("timer granularity must not be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.Port != "" && c.URL != "" {
		return errors.New("--port and --url are mutually exclusive")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud rate must be positive")
	}
	return nil
}

// configSetter applies configuration values while respecting flag
// precedence: a value is only applied if its flag was not set explicitly.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets any int value present in a file
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses an environment value; zero and negative values
// are accepted
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// fileConfig mirrors Config with TOML friendly types
type fileConfig struct {
	TicRate          float64 `toml:"tic_rate"`
	Backend          string  `toml:"backend"`
	Chip             string  `toml:"chip"`
	KeyLine          string  `toml:"key_line"`
	IndicatorLine    string  `toml:"indicator_line"`
	TXLine           string  `toml:"tx_line"`
	Speed0Line       string  `toml:"speed0_line"`
	Speed1Line       string  `toml:"speed1_line"`
	SpeedIndex       *int    `toml:"speed"`
	PollInterval     string  `toml:"poll_interval"`
	TimerGranularity string  `toml:"timer_granularity"`
	Invite           *bool   `toml:"invite"`
	TracePath        string  `toml:"trace"`
	LogLevel         string  `toml:"log_level"`
	Port             string  `toml:"port"`
	Baud             int     `toml:"baud"`
	URL              string  `toml:"url"`
	Username         string  `toml:"username"`
	NoSSLVerify      *bool   `toml:"no_ssl_verify"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// defaultConfigPath returns ~/.sounder/config.toml, or "" without a home
func defaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".sounder", "config.toml")
	}
	return ""
}

func applyFileConfig(cfg *Config, fc fileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setFloat("tic-rate", fc.TicRate, &cfg.TicRate)
	s.setString("backend", fc.Backend, &cfg.Backend)
	s.setString("chip", fc.Chip, &cfg.Chip)
	s.setString("key-line", fc.KeyLine, &cfg.KeyLine)
	s.setString("indicator-line", fc.IndicatorLine, &cfg.IndicatorLine)
	s.setString("tx-line", fc.TXLine, &cfg.TXLine)
	s.setString("speed0-line", fc.Speed0Line, &cfg.Speed0Line)
	s.setString("speed1-line", fc.Speed1Line, &cfg.Speed1Line)
	s.setIntPtr("speed", fc.SpeedIndex, &cfg.SpeedIndex)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("granularity", fc.TimerGranularity, &cfg.TimerGranularity); err != nil {
		return err
	}

	s.setBool("invite", fc.Invite, &cfg.Invite)
	s.setString("trace", fc.TracePath, &cfg.TracePath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setString("port", fc.Port, &cfg.Port)
	s.setInt("baud", fc.Baud, &cfg.Baud)
	s.setString("url", fc.URL, &cfg.URL)
	s.setString("username", fc.Username, &cfg.Username)
	s.setBool("no-ssl-verify", fc.NoSSLVerify, &cfg.NoSSLVerify)

	return nil
}

// applyEnvConfig applies SOUNDER_* environment variables. They override
// the file but not explicitly set flags.
func applyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setFloatFromString("tic-rate", os.Getenv("SOUNDER_TIC_RATE"), &cfg.TicRate); err != nil {
		return err
	}
	s.setString("backend", os.Getenv("SOUNDER_BACKEND"), &cfg.Backend)
	s.setString("chip", os.Getenv("SOUNDER_CHIP"), &cfg.Chip)
	s.setString("key-line", os.Getenv("SOUNDER_KEY_LINE"), &cfg.KeyLine)
	s.setString("indicator-line", os.Getenv("SOUNDER_INDICATOR_LINE"), &cfg.IndicatorLine)
	s.setString("tx-line", os.Getenv("SOUNDER_TX_LINE"), &cfg.TXLine)
	s.setString("speed0-line", os.Getenv("SOUNDER_SPEED0_LINE"), &cfg.Speed0Line)
	s.setString("speed1-line", os.Getenv("SOUNDER_SPEED1_LINE"), &cfg.Speed1Line)
	if err := s.setIntFromString("speed", os.Getenv("SOUNDER_SPEED"), &cfg.SpeedIndex); err != nil {
		return err
	}

	if err := s.setDuration("poll", os.Getenv("SOUNDER_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("granularity", os.Getenv("SOUNDER_TIMER_GRANULARITY"), &cfg.TimerGranularity); err != nil {
		return err
	}

	s.setBoolFromString("invite", os.Getenv("SOUNDER_INVITE"), &cfg.Invite)
	s.setString("trace", os.Getenv("SOUNDER_TRACE"), &cfg.TracePath)
	s.setString("log-level", os.Getenv("SOUNDER_LOG_LEVEL"), &cfg.LogLevel)

	s.setString("port", os.Getenv("SOUNDER_PORT"), &cfg.Port)
	if err := s.setIntFromString("baud", os.Getenv("SOUNDER_BAUD"), &cfg.Baud); err != nil {
		return err
	}
	s.setString("url", os.Getenv("SOUNDER_URL"), &cfg.URL)
	s.setString("username", os.Getenv("SOUNDER_USERNAME"), &cfg.Username)
	s.setBoolFromString("no-ssl-verify", os.Getenv("SOUNDER_NO_SSL_VERIFY"), &cfg.NoSSLVerify)

	return nil
}

// loadConfig layers defaults, the config file, the environment and the
// explicitly set flags. A missing default file is ignored; a missing file
// named with --config is an error.
func loadConfig(cfg *Config, path string, changed map[string]bool) error {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	if path != "" {
		fc, err := loadFileConfig(path)
		switch {
		case err == nil:
			if err := applyFileConfig(cfg, fc, changed); err != nil {
				return err
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return fmt.Errorf("load config: %w", err)
		}
	}

	if err := applyEnvConfig(cfg, changed); err != nil {
		return err
	}
	return cfg.Validate()
}
