package view

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-12

// eps32 is for comparisons routed through Uniform, which narrows to
// float32.
const eps32 = 1e-5

func vecNear(a, b mgl64.Vec2) bool {
	return math.Abs(a.X()-b.X()) < eps && math.Abs(a.Y()-b.Y()) < eps
}

func vecNear32(a, b mgl64.Vec2) bool {
	return math.Abs(a.X()-b.X()) < eps32 && math.Abs(a.Y()-b.Y()) < eps32
}

// planeAt maps a screen position through the view the way the shader
// does, using the narrowed uniform values.
func planeAt(v *View, w, h int, x, y float64) mgl64.Vec2 {
	scale, centre := v.Uniform(w, h)
	return mgl64.Vec2{
		x*float64(scale) - float64(centre[0]),
		y*float64(scale) - float64(centre[1]),
	}
}

func TestNewFramesDefaultSpan(t *testing.T) {
	v := New(800, 600)
	if got := v.Scale(); got != DefaultSpan/600 {
		t.Errorf("Scale() = %v, want %v", got, DefaultSpan/600)
	}
	if !vecNear(v.Centre(), mgl64.Vec2{}) {
		t.Errorf("Centre() = %v, want origin", v.Centre())
	}
	// The viewport centre lands on the origin.
	if p := planeAt(v, 800, 600, 400, 300); !vecNear32(p, mgl64.Vec2{}) {
		t.Errorf("viewport centre maps to %v, want origin", p)
	}
}

func TestPanShiftsCentre(t *testing.T) {
	v := New(400, 400)
	s := v.Scale()
	v.Pan(100, -50)
	want := mgl64.Vec2{-100 * s, 50 * s}
	if !vecNear(v.Centre(), want) {
		t.Errorf("Centre() = %v, want %v", v.Centre(), want)
	}
}

func TestPanIsAdditive(t *testing.T) {
	a := New(400, 400)
	b := New(400, 400)
	a.Pan(30, 40)
	a.Pan(-10, 5)
	b.Pan(20, 45)
	if !vecNear(a.Centre(), b.Centre()) {
		t.Errorf("split pan %v differs from combined pan %v", a.Centre(), b.Centre())
	}
}

func TestZoomAtKeepsFocusFixed(t *testing.T) {
	const w, h = 640, 480
	v := New(w, h)
	v.Pan(37, -12)

	// Focus 100 screen units right and 60 up of the viewport centre.
	focus := mgl64.Vec2{100, -60}
	before := planeAt(v, w, h, w/2+focus.X(), h/2+focus.Y())
	v.ZoomAt(focus, 0.5)
	after := planeAt(v, w, h, w/2+focus.X(), h/2+focus.Y())

	if !vecNear32(before, after) {
		t.Errorf("focus moved from %v to %v across a zoom", before, after)
	}
	if got := v.Scale(); math.Abs(got-DefaultSpan/h*0.5) > eps {
		t.Errorf("Scale() = %v after halving", got)
	}
}

func TestZoomAtCentreOnlyScales(t *testing.T) {
	v := New(400, 400)
	v.Pan(25, 25)
	centre := v.Centre()
	v.ZoomAt(mgl64.Vec2{}, 2)
	if !vecNear(v.Centre(), centre) {
		t.Errorf("zooming at the centre moved it from %v to %v", centre, v.Centre())
	}
}

func TestZoomRoundTrip(t *testing.T) {
	v := New(400, 400)
	v.Pan(13, 7)
	scale, centre := v.Scale(), v.Centre()
	focus := mgl64.Vec2{55, -20}
	v.ZoomAt(focus, 0.25)
	v.ZoomAt(focus, 4)
	if math.Abs(v.Scale()-scale) > eps {
		t.Errorf("Scale() = %v, want %v", v.Scale(), scale)
	}
	if !vecNear(v.Centre(), centre) {
		t.Errorf("Centre() = %v, want %v", v.Centre(), centre)
	}
}

func TestSet(t *testing.T) {
	v := New(100, 100)
	v.Set(1e-6, mgl64.Vec2{-0.75, 0.1})
	if v.Scale() != 1e-6 {
		t.Errorf("Scale() = %v", v.Scale())
	}
	if !vecNear(v.Centre(), mgl64.Vec2{-0.75, 0.1}) {
		t.Errorf("Centre() = %v", v.Centre())
	}
}

func TestReset(t *testing.T) {
	v := New(200, 100)
	v.Pan(50, 50)
	v.ZoomAt(mgl64.Vec2{10, 10}, 0.1)
	v.Reset(200, 100)
	if v.Scale() != DefaultSpan/100 {
		t.Errorf("Scale() = %v after reset", v.Scale())
	}
	if !vecNear(v.Centre(), mgl64.Vec2{}) {
		t.Errorf("Centre() = %v after reset", v.Centre())
	}
}
