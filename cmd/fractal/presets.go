package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/fractal"
)

var presetsCmd = newPresetsCmd()

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in formulas",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			for _, p := range fractal.Presets() {
				fmt.Printf("%-14s %s\n", p.Name, p.Iteration)
			}
		},
	}
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
