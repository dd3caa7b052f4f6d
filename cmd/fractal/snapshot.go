package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/eval"
	"github.com/gogpu/fractal/params"
	"github.com/gogpu/fractal/settings"
	"github.com/gogpu/fractal/view"
)

var outFlag string

var snapshotCmd = newSnapshotCmd()

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render a single frame to a PNG without a display",
		Long: `Snapshot renders a frame on the CPU and writes it as a PNG. Only the
built-in presets can be rendered this way; custom formulas exist solely
as shader code and need the interactive viewer.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			setupLogging()
			return runSnapshot(widthFlag, heightFlag, configFlag, presetFlag, outFlag)
		},
	}
	cmd.Flags().StringVarP(&outFlag, "out", "o", "fractal.png", "output PNG path")

	return cmd
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(width, height int, config, preset, out string) error {
	s := settings.Default()
	if config != "" {
		var err error
		if s, err = settings.Import(config); err != nil {
			return err
		}
	}
	if preset != "" {
		p, ok := fractal.PresetByName(preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", preset)
		}
		s.IterationExpr = p.Iteration
		s.ColourExpr = p.Colour
	}

	iterate, err := cpuIteration(s.IterationExpr)
	if err != nil {
		return err
	}
	colour, err := cpuColour(s.ColourExpr, s.Iterations)
	if err != nil {
		return err
	}

	v := view.New(width, height)
	if s.Scale > 0 {
		v.Set(s.Scale, mgl64.Vec2{s.Centre[0], s.Centre[1]})
	}
	scale, centre := v.Uniform(width, height)

	e := &eval.Evaluator{
		Block: params.Block{
			Scale:           scale,
			EscapeThreshold: s.EscapeThreshold,
			Centre:          centre,
			Iterations:      s.Iterations,
			Mode:            s.Mode,
			Smooth:          s.Smooth,
			InteriorBlack:   s.InteriorBlack,
			InitialValue:    s.InitialValue,
		},
		Iterate: iterate,
		Colour:  colour,
	}
	img, err := e.Render(width, height)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	fractal.Logger().Info("snapshot written", "path", out, "width", width, "height", height)
	return nil
}

// cpuIteration resolves an iteration expression to its Go mirror by
// matching it against the built-in presets.
func cpuIteration(expr string) (eval.IterationFunc, error) {
	for _, p := range fractal.Presets() {
		if p.Iteration == expr {
			return p.CPU, nil
		}
	}
	return nil, fmt.Errorf("formula %q has no CPU form; use the interactive viewer", expr)
}

func cpuColour(expr string, iterations int32) (eval.ColourFunc, error) {
	if expr == settings.DefaultColourExpr {
		return fractal.DefaultColourFunc(iterations), nil
	}
	return nil, fmt.Errorf("colour formula %q has no CPU form; use the interactive viewer", expr)
}
