package fractal

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/fractal/eval"
	"github.com/gogpu/fractal/settings"
	"github.com/gogpu/fractal/shader"
)

// Preset is a named fractal formula: the WGSL expression pair the GPU
// renders, and an equivalent Go iteration function for headless
// rendering. Custom user formulas carry no Go mirror, so CPU is nil
// for them.
type Preset struct {
	Name      string
	Iteration string
	Colour    string
	CPU       eval.IterationFunc
}

// Pair returns the preset's expressions ready for assembly.
func (p Preset) Pair() shader.FormulaPair {
	return shader.FormulaPair{Iteration: p.Iteration, Colour: p.Colour}
}

// Presets returns the built-in formulas. The first entry is the
// default.
func Presets() []Preset {
	return []Preset{
		{
			Name:      "Mandelbrot",
			Iteration: "csquare(z) + c",
			Colour:    settings.DefaultColourExpr,
			CPU: func(z, c mgl32.Vec2) mgl32.Vec2 {
				return eval.Square(z).Add(c)
			},
		},
		{
			Name:      "Burning ship",
			Iteration: "csquare(abs(z)) + c",
			Colour:    settings.DefaultColourExpr,
			CPU: func(z, c mgl32.Vec2) mgl32.Vec2 {
				return eval.Square(eval.Abs(z)).Add(c)
			},
		},
		{
			Name:      "Feather",
			Iteration: "cdiv(cmul(csquare(z), z), vec2<f32>(1.0, 0.0) + z * z) + c",
			Colour:    settings.DefaultColourExpr,
			CPU: func(z, c mgl32.Vec2) mgl32.Vec2 {
				// z * z is component-wise in the shader, not complex
				// multiplication.
				den := mgl32.Vec2{1 + z[0]*z[0], z[1] * z[1]}
				return eval.Div(eval.Mul(eval.Square(z), z), den).Add(c)
			},
		},
		{
			Name:      "Tricorn",
			Iteration: "csquare(vec2<f32>(z.x, -z.y)) + c",
			Colour:    settings.DefaultColourExpr,
			CPU: func(z, c mgl32.Vec2) mgl32.Vec2 {
				return eval.Square(mgl32.Vec2{z[0], -z[1]}).Add(c)
			},
		},
	}
}

// PresetByName looks a preset up case-sensitively. The second return
// is false when no preset has the name.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets() {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// DefaultColourFunc mirrors settings.DefaultColourExpr: hue from the
// normalised log of the iteration count.
func DefaultColourFunc(iterations int32) eval.ColourFunc {
	return func(n float32, z, c mgl32.Vec2) mgl32.Vec3 {
		h := math32.Log(n+1) / math32.Log(float32(iterations)+1)
		return eval.HSVRGB(mgl32.Vec3{h, 0.8, 0.8})
	}
}
