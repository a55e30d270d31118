// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pins

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/Thermoquad/sounder/pkg/morse"
)

// ============================================================
// Fixed Inputs
// ============================================================

func TestSpeedInputs(t *testing.T) {
	for index := uint8(0); index < 4; index++ {
		b0, b1 := SpeedInputs(index)
		assert.Equal(t, index, morse.SpeedIndex(b0.Asserted(), b1.Asserted()))
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("sysfs", "")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestErrorLatch_KeepsFirst(t *testing.T) {
	var l errorLatch
	assert.NoError(t, l.get())
	first := errors.New("first")
	l.set(first)
	l.set(errors.New("second"))
	assert.Equal(t, first, l.get())
}

// ============================================================
// Periph Backend
// ============================================================

func newTestBoard() (*Periph, map[string]*gpiotest.Pin) {
	pins := map[string]*gpiotest.Pin{
		"GPIO17": {N: "GPIO17", Num: 17, L: gpio.High},
		"GPIO27": {N: "GPIO27", Num: 27, L: gpio.High},
		"GPIO22": {N: "GPIO22", Num: 22},
	}
	return NewPeriph(func(name string) gpio.PinIO {
		if p, ok := pins[name]; ok {
			return p
		}
		return nil
	}), pins
}

func TestPeriph_ActiveLowKey(t *testing.T) {
	board, pins := newTestBoard()
	key, err := board.Input("GPIO17", true)
	require.NoError(t, err)
	assert.Equal(t, gpio.PullUp, pins["GPIO17"].P)

	assert.False(t, key.Asserted(), "released key is pulled high")
	pins["GPIO17"].L = gpio.Low
	assert.True(t, key.Asserted())
}

func TestPeriph_ActiveHighInput(t *testing.T) {
	board, pins := newTestBoard()
	b0, err := board.Input("GPIO27", false)
	require.NoError(t, err)

	assert.True(t, b0.Asserted(), "floating selector reads high")
	pins["GPIO27"].L = gpio.Low
	assert.False(t, b0.Asserted())
}

func TestPeriph_Output(t *testing.T) {
	board, pins := newTestBoard()
	tx, err := board.Output("GPIO22", true)
	require.NoError(t, err)
	assert.Equal(t, gpio.High, pins["GPIO22"].L)

	tx.Set(false)
	assert.Equal(t, gpio.Low, pins["GPIO22"].L)
	tx.Set(true)
	assert.Equal(t, gpio.High, pins["GPIO22"].L)
	assert.NoError(t, board.Err())
	assert.NoError(t, board.Close())
}

func TestPeriph_TransmitterFrame(t *testing.T) {
	board, pins := newTestBoard()
	line, err := board.Output("GPIO22", true)
	require.NoError(t, err)

	var levels []gpio.Level
	tx := morse.NewTransmitter(morse.LineFunc(func(high bool) {
		line.Set(high)
		levels = append(levels, pins["GPIO22"].L)
	}))
	require.NoError(t, tx.Send('E'))
	for tx.Busy() {
		tx.Tick()
	}

	// idle, start, 0x45 LSB first, stop
	want := []gpio.Level{
		gpio.High, gpio.Low,
		gpio.High, gpio.Low, gpio.High, gpio.Low, gpio.Low, gpio.Low, gpio.High, gpio.Low,
		gpio.High,
	}
	assert.Equal(t, want, levels)
}

func TestPeriph_UnknownPin(t *testing.T) {
	board, _ := newTestBoard()
	_, err := board.Input("GPIO4", true)
	assert.Error(t, err)
	_, err = board.Output("GPIO4", false)
	assert.Error(t, err)
}

// ============================================================
// GPIO Character Device Backend
// ============================================================

func TestChip_ResolveOffset(t *testing.T) {
	c := NewChip("gpiochip0")
	chip, offset, err := c.resolve("17")
	require.NoError(t, err)
	assert.Equal(t, "gpiochip0", chip)
	assert.Equal(t, 17, offset)

	_, _, err = c.resolve("-1")
	assert.Error(t, err)
}

func TestChip_CloseEmpty(t *testing.T) {
	c := NewChip("gpiochip0")
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Err())
}
