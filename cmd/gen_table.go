// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/sounder/pkg/codegen"
)

var (
	genInput   string
	genOutput  string
	genPackage string
)

var genTableCmd = &cobra.Command{
	Use:   "gen_table",
	Short: "Generate the decoder's code table",
	Long: `Generate the code table as Go source from a raw Morse code list.

The input is a YAML list of {char, code} entries where code is written
with '.' and '-'. Without --input the built-in list is used. Used by
go generate in pkg/morse.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	RunE:             runGenTable,
}

func init() {
	rootCmd.AddCommand(genTableCmd)
	genTableCmd.Flags().StringVar(&genInput, "input", "", "Raw table YAML file (default built in)")
	genTableCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output file (default stdout)")
	genTableCmd.Flags().StringVar(&genPackage, "package", "morse", "Package name of the generated file")
}

func runGenTable(cmd *cobra.Command, args []string) error {
	var entries []codegen.Entry
	var err error
	if genInput == "" {
		entries, err = codegen.Default()
	} else {
		var data []byte
		data, err = os.ReadFile(genInput)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", genInput, err)
		}
		entries, err = codegen.Parse(data)
	}
	if err != nil {
		return err
	}

	table, err := codegen.Build(entries)
	if err != nil {
		return err
	}
	src, err := codegen.Generate(table, genPackage)
	if err != nil {
		return err
	}

	if genOutput == "" {
		_, err = os.Stdout.Write(src)
		return err
	}
	return os.WriteFile(genOutput, src, 0o644)
}
