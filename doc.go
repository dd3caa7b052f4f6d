// Package fractal renders escape-time fractals on the GPU with
// formulas that can be swapped while the program runs.
//
// # Overview
//
// A fractal is described by two WGSL expressions: one advancing z each
// iteration, one mapping the escape result to a colour. The shader
// package validates the expressions, splices them into a master
// template and compiles the result to SPIR-V on the host; the render
// package drives the compiled program through the wgpu HAL. Navigation,
// parameters and share strings are tied together by the Viewer.
//
// # Quick Start
//
//	import "github.com/gogpu/fractal"
//
//	v, err := fractal.NewViewer(device, queue, 800, 600)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Close()
//
//	// Switch to a built-in formula and move around.
//	v.ApplyPreset("Burning ship")
//	v.ZoomAt(0, 0, 0.5)
//
//	img, err := v.Frame()
//
// # Packages
//
//   - shader: expression validation, template assembly, compilation
//   - params: the host/GPU parameter block and its binary codec
//   - view: the pan/zoom transform in float64
//   - eval: CPU mirror of the shader for headless rendering and tests
//   - settings: shareable configuration strings
//   - render: the GPU render pass and readback
//
// # Logging
//
// The package is silent by default. Pass a [log/slog.Logger] to
// [SetLogger] to see lifecycle events and rejected formulas.
package fractal
