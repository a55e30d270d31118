// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Sounder - Morse Key Decoder
//
// Reads a telegraph key, decodes the keyed Morse code and sends the text
// out as 8N1 serial frames.

package main

import (
	"os"

	"github.com/Thermoquad/sounder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
