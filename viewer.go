package fractal

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fractal/params"
	"github.com/gogpu/fractal/render"
	"github.com/gogpu/fractal/settings"
	"github.com/gogpu/fractal/shader"
	"github.com/gogpu/fractal/view"
)

// Viewer is the interactive fractal session: the navigation transform,
// the current settings and the GPU renderer, kept consistent with each
// other. Every state change validates fully before it is committed, so
// a rejected formula or a corrupt import leaves the previous image
// rendering.
//
// Viewer is not safe for concurrent use; drive it from the render
// loop's goroutine.
type Viewer struct {
	settings settings.Settings
	view     *view.View
	renderer *render.Renderer
	width    int
	height   int
}

// NewViewer opens a session with default settings on an opened device.
func NewViewer(device hal.Device, queue hal.Queue, width, height int) (*Viewer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("fractal: invalid viewport %dx%d", width, height)
	}
	v := &Viewer{
		settings: settings.Default(),
		view:     view.New(width, height),
		renderer: render.New(device, queue),
		width:    width,
		height:   height,
	}
	if err := v.installFormulas(v.settings.IterationExpr, v.settings.ColourExpr, v.settings.AdditionalWGSL); err != nil {
		v.renderer.Destroy()
		return nil, err
	}
	return v, nil
}

// Close releases the GPU resources.
func (v *Viewer) Close() {
	v.renderer.Destroy()
}

// Settings returns a copy of the current settings with the live
// transform folded in.
func (v *Viewer) Settings() settings.Settings {
	s := v.settings
	s.Scale = v.view.Scale()
	c := v.view.Centre()
	s.Centre = [2]float64{c.X(), c.Y()}
	return s
}

// ApplySettings validates and applies a full settings record. The
// formulas are compiled before anything is committed; on error the
// viewer is unchanged. A zero scale keeps the current transform, which
// is what fresh defaults carry.
func (v *Viewer) ApplySettings(s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := v.installFormulas(s.IterationExpr, s.ColourExpr, s.AdditionalWGSL); err != nil {
		return err
	}
	if s.Scale > 0 {
		v.view.Set(s.Scale, mgl64.Vec2{s.Centre[0], s.Centre[1]})
	}
	v.settings = s
	return nil
}

// ApplyFormulas swaps in a new expression pair with optional helper
// WGSL, keeping everything else.
func (v *Viewer) ApplyFormulas(iteration, colour, additional string) error {
	if err := v.installFormulas(iteration, colour, additional); err != nil {
		return err
	}
	v.settings.IterationExpr = iteration
	v.settings.ColourExpr = colour
	v.settings.AdditionalWGSL = additional
	return nil
}

// ApplyPreset swaps in a built-in formula by name.
func (v *Viewer) ApplyPreset(name string) error {
	p, ok := PresetByName(name)
	if !ok {
		return fmt.Errorf("fractal: unknown preset %q", name)
	}
	return v.ApplyFormulas(p.Iteration, p.Colour, "")
}

func (v *Viewer) installFormulas(iteration, colour, additional string) error {
	prog, err := shader.Assemble(shader.FormulaPair{
		Iteration:  iteration,
		Colour:     colour,
		Additional: additional,
	})
	if err != nil {
		Logger().Warn("formula rejected", "error", err)
		return err
	}
	if err := v.renderer.SetProgram(prog); err != nil {
		Logger().Warn("program install failed", "error", err)
		return err
	}
	Logger().Info("program installed", "iteration", iteration, "colour", colour)
	return nil
}

// Export serialises the session as a shareable string.
func (v *Viewer) Export() (string, error) {
	return v.Settings().Export()
}

// Import restores a session from a string produced by Export. On any
// decoding or compilation failure the current session is untouched.
func (v *Viewer) Import(raw string) error {
	s, err := settings.Import(raw)
	if err != nil {
		Logger().Warn("import rejected", "error", err)
		return err
	}
	return v.ApplySettings(s)
}

// Resize tells the viewer the viewport changed. The transform is kept;
// only the frame dimensions follow the window.
func (v *Viewer) Resize(width, height int) {
	if width < 1 || height < 1 {
		return
	}
	v.width = width
	v.height = height
}

// Pan shifts the view by a screen-space drag.
func (v *Viewer) Pan(dx, dy float64) {
	v.view.Pan(dx, dy)
}

// ZoomAt zooms by factor around a focus given in screen units relative
// to the viewport centre.
func (v *Viewer) ZoomAt(fx, fy, factor float64) {
	v.view.ZoomAt(mgl64.Vec2{fx, fy}, factor)
}

// Reset reframes the default view.
func (v *Viewer) Reset() {
	v.view.Reset(v.width, v.height)
}

// Block builds the parameter block for the current frame.
func (v *Viewer) Block() params.Block {
	scale, centre := v.view.Uniform(v.width, v.height)
	s := v.settings
	return params.Block{
		Scale:           scale,
		EscapeThreshold: s.EscapeThreshold,
		Centre:          centre,
		Iterations:      s.Iterations,
		Mode:            s.Mode,
		Smooth:          s.Smooth,
		InteriorBlack:   s.InteriorBlack,
		InitialValue:    s.InitialValue,
	}
}

// Frame renders the current state and reads it back.
func (v *Viewer) Frame() (*image.RGBA, error) {
	return v.renderer.RenderFrame(v.Block(), v.width, v.height)
}
