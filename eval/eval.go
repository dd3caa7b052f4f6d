package eval

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/fractal/params"
)

// IterationFunc advances z one step. It corresponds to the WGSL
// iteration expression, with the same ambient bindings as arguments.
type IterationFunc func(z, c mgl32.Vec2) mgl32.Vec2

// ColourFunc maps an escape result to a colour. c is the pixel's plane
// coordinate, as at the shader's colour site.
type ColourFunc func(n float32, z, c mgl32.Vec2) mgl32.Vec3

// Result is the outcome of tracing a single point.
type Result struct {
	N        float32 // iteration count, fractional when smoothing is on
	Z        mgl32.Vec2
	Interior bool // the iteration limit was reached
}

// Evaluator traces points of the plane through a fractal formula using
// the parameters of a frame. The zero value is not usable; all three
// fields must be set.
type Evaluator struct {
	Block   params.Block
	Iterate IterationFunc
	Colour  ColourFunc
}

// Trace runs the escape loop for the plane coordinate p. Seeding,
// escape testing and smoothing follow the shader exactly, including the
// soft fall-through where a point at the iteration limit is still
// smoothed and coloured.
func (e *Evaluator) Trace(p mgl32.Vec2) Result {
	b := e.Block
	iv := mgl32.Vec2{b.InitialValue[0], b.InitialValue[1]}

	var z, c mgl32.Vec2
	var i int32
	switch b.Mode {
	case params.SeedJulia:
		z = p
		c = iv
	case params.SeedCoordinate:
		// The first application of the formula is implicit in the seed,
		// so counting starts at one.
		z = p.Add(iv)
		c = p
		i = 1
	default:
		z = iv
		c = p
	}

	limit := b.EscapeThreshold * b.EscapeThreshold
	for MagSq(z) < limit && i < b.Iterations {
		z = e.Iterate(z, c)
		i++
	}
	interior := i >= b.Iterations

	n := float32(i)
	if b.Smooth && i > 0 {
		z = e.Iterate(z, c)
		z = e.Iterate(z, c)
		n = n + 2 - math32.Log2(math32.Log(Mag(z)))
	}
	return Result{N: n, Z: z, Interior: interior}
}

// Pixel traces p and colours it.
func (e *Evaluator) Pixel(p mgl32.Vec2) mgl32.Vec3 {
	r := e.Trace(p)
	if r.Interior && e.Block.InteriorBlack {
		return mgl32.Vec3{}
	}
	return e.Colour(r.N, r.Z, p)
}

// Render traces every pixel of a width by height frame. The block's
// scale and centre map framebuffer positions to the plane the same way
// the fragment shader does, sampling at pixel centres.
func (e *Evaluator) Render(width, height int) (*image.RGBA, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("eval: invalid frame size %dx%d", width, height)
	}
	if err := e.Block.Validate(); err != nil {
		return nil, err
	}
	if e.Iterate == nil || e.Colour == nil {
		return nil, fmt.Errorf("eval: evaluator has no formula")
	}

	b := e.Block
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		fy := (float32(y)+0.5)*b.Scale - b.Centre[1]
		for x := 0; x < width; x++ {
			fx := (float32(x)+0.5)*b.Scale - b.Centre[0]
			col := e.Pixel(mgl32.Vec2{fx, fy})
			img.SetRGBA(x, y, color.RGBA{
				R: channel(col[0]),
				G: channel(col[1]),
				B: channel(col[2]),
				A: 0xff,
			})
		}
	}
	return img, nil
}

// channel clamps a shader-space colour component to 8 bits. NaN maps
// to zero.
func channel(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
