// Package eval runs fractal formulas on the CPU. It mirrors the
// shader's escape loop bit-for-bit in float32 so that headless
// rendering and tests observe the same behaviour the GPU produces.
package eval

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Complex helpers. Each must match the function of the same name in
// shader/shaders/prelude.wgsl.

// Mag matches cmag.
func Mag(z mgl32.Vec2) float32 { return z.Len() }

// MagSq matches cmagsq.
func MagSq(z mgl32.Vec2) float32 { return z.Dot(z) }

// Mul matches cmul.
func Mul(a, b mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{a[0]*b[0] - a[1]*b[1], a[0]*b[1] + a[1]*b[0]}
}

// Div matches cdiv.
func Div(a, b mgl32.Vec2) mgl32.Vec2 {
	d := b.Dot(b)
	return mgl32.Vec2{(a[0]*b[0] + a[1]*b[1]) / d, (a[1]*b[0] - a[0]*b[1]) / d}
}

// Square matches csquare.
func Square(z mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{z[0]*z[0] - z[1]*z[1], 2 * z[0] * z[1]}
}

// Pow matches cpow.
func Pow(z mgl32.Vec2, p float32) mgl32.Vec2 {
	r := math32.Pow(z.Len(), p)
	theta := p * math32.Atan2(z[1], z[0])
	return mgl32.Vec2{r * math32.Cos(theta), r * math32.Sin(theta)}
}

// PowC matches cpowc.
func PowC(z, p mgl32.Vec2) mgl32.Vec2 {
	lnr := math32.Log(z.Len())
	theta := math32.Atan2(z[1], z[0])
	r := math32.Exp(p[0]*lnr - p[1]*theta)
	phi := p[1]*lnr + p[0]*theta
	return mgl32.Vec2{r * math32.Cos(phi), r * math32.Sin(phi)}
}

// Abs matches WGSL's component-wise abs on vec2<f32>.
func Abs(z mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{math32.Abs(z[0]), math32.Abs(z[1])}
}

// HexRGB matches hex_rgb.
func HexRGB(hex uint32) mgl32.Vec3 {
	r := float32(hex >> 16 & 0xff)
	g := float32(hex >> 8 & 0xff)
	b := float32(hex & 0xff)
	return mgl32.Vec3{r / 255, g / 255, b / 255}
}

// HSVRGB matches hsv_rgb.
func HSVRGB(hsv mgl32.Vec3) mgl32.Vec3 {
	h := fract(hsv[0]) * 6
	c := hsv[2] * hsv[1]
	x := c * (1 - math32.Abs(h-2*math32.Floor(h*0.5)-1))
	var rgb mgl32.Vec3
	switch {
	case h < 1:
		rgb = mgl32.Vec3{c, x, 0}
	case h < 2:
		rgb = mgl32.Vec3{x, c, 0}
	case h < 3:
		rgb = mgl32.Vec3{0, c, x}
	case h < 4:
		rgb = mgl32.Vec3{0, x, c}
	case h < 5:
		rgb = mgl32.Vec3{x, 0, c}
	default:
		rgb = mgl32.Vec3{c, 0, x}
	}
	m := hsv[2] - c
	return mgl32.Vec3{rgb[0] + m, rgb[1] + m, rgb[2] + m}
}

func fract(x float32) float32 { return x - math32.Floor(x) }
