package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/fractal"
)

var (
	widthFlag   int
	heightFlag  int
	configFlag  string
	presetFlag  string
	verboseFlag bool
)

// rootCmd opens the interactive viewer window.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fractal",
		Short: "Interactive GPU fractal explorer",
		Long: `Fractal renders escape-time fractals on the GPU with formulas that can
be swapped at runtime.

Keys in the viewer:
  arrows      pan
  - / =       zoom out / in
  1 .. 4      switch preset formula
  s           toggle smooth colouring
  b           toggle black interior
  r           reset the view
  e           print a shareable configuration string`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			setupLogging()
			return runWindow(widthFlag, heightFlag, configFlag, presetFlag)
		},
	}
	cmd.PersistentFlags().IntVar(&widthFlag, "width", 800, "viewport width in pixels")
	cmd.PersistentFlags().IntVar(&heightFlag, "height", 600, "viewport height in pixels")
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", "configuration string or share URL to start from")
	cmd.PersistentFlags().StringVar(&presetFlag, "preset", "", "preset formula to start with (see presets subcommand)")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log debug output to stderr")

	return cmd
}

func setupLogging() {
	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	fractal.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// Execute runs the CLI. Called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
