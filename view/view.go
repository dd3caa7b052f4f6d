// Package view tracks the pan/zoom transform between screen space and
// the complex plane. State is kept in float64 so that repeated pans and
// zooms accumulate less error than the float32 the shader works in; the
// narrowing happens once per frame.
package view

import (
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultSpan is the width, in fractal units, of the short edge of a
// freshly reset viewport. Four units centred on the origin covers the
// escape disc of the classic sets.
const DefaultSpan = 4.0

// View is the current transform. The centre is the fractal-plane point
// under the middle of the viewport; scale is fractal units per screen
// unit.
type View struct {
	scale  float64
	centre mgl64.Vec2
}

// New returns a view framing the default span for the given viewport.
func New(width, height int) *View {
	v := &View{}
	v.Reset(width, height)
	return v
}

// Reset reframes the default span on the origin.
func (v *View) Reset(width, height int) {
	v.scale = DefaultSpan / float64(min(width, height))
	v.centre = mgl64.Vec2{}
}

// Scale returns fractal units per screen unit.
func (v *View) Scale() float64 { return v.scale }

// Centre returns the fractal-plane point under the viewport centre.
func (v *View) Centre() mgl64.Vec2 { return v.centre }

// Set replaces the transform wholesale, as when importing a saved
// configuration.
func (v *View) Set(scale float64, centre mgl64.Vec2) {
	v.scale = scale
	v.centre = centre
}

// Pan shifts the view by a screen-space drag. Dragging content to the
// right moves the visible region of the plane to the left.
func (v *View) Pan(dx, dy float64) {
	v.centre = v.centre.Sub(mgl64.Vec2{dx * v.scale, dy * v.scale})
}

// ZoomAt scales the view by factor while keeping the fractal point
// under the focus fixed on screen. The focus is given in screen units
// relative to the viewport centre. A factor below one zooms in.
func (v *View) ZoomAt(focus mgl64.Vec2, factor float64) {
	next := v.scale * factor
	v.centre = v.centre.Add(focus.Mul(v.scale - next))
	v.scale = next
}

// Uniform narrows the transform to the shader's frame parameters for a
// viewport of the given size: the per-pixel scale and the offset that
// maps framebuffer coordinates to the plane as xy*scale - centre.
func (v *View) Uniform(width, height int) (scale float32, centre [2]float32) {
	half := mgl64.Vec2{float64(width) / 2, float64(height) / 2}
	off := half.Mul(v.scale).Sub(v.centre)
	return float32(v.scale), [2]float32{float32(off.X()), float32(off.Y())}
}
