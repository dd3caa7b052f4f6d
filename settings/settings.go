// Package settings saves and restores the full state of the fractal
// viewer as a compact shareable string. The string is a version tag
// followed by a base64 binary body, and survives being pasted into a
// URL query.
package settings

import (
	"errors"
	"fmt"

	"github.com/gogpu/fractal/params"
)

// Version tag of strings produced by Export. Import additionally
// accepts the previous minor version.
const (
	versionCurrent  = "1.1"
	versionPrevious = "1.0" // lacked the colour expression and helper code
)

var (
	// ErrMalformed is the root of every import failure; the more
	// specific sentinels below all wrap it.
	ErrMalformed = errors.New("settings: malformed configuration")
	// ErrInvalidFraming means the version tag or separator is missing.
	ErrInvalidFraming = fmt.Errorf("%w: bad framing", ErrMalformed)
	// ErrVersionMismatch means the tag names a version this build
	// cannot read.
	ErrVersionMismatch = fmt.Errorf("%w: unsupported version", ErrMalformed)
	// ErrInvalidBase64 means the body is not valid base64.
	ErrInvalidBase64 = fmt.Errorf("%w: bad base64 body", ErrMalformed)
	// ErrBodyCorrupt means the decoded body does not deserialise.
	ErrBodyCorrupt = fmt.Errorf("%w: corrupt body", ErrMalformed)
)

// Settings is everything needed to reproduce a view: the transform,
// the iteration parameters and both formulas. The transform is kept in
// float64, matching the precision the viewer navigates with.
type Settings struct {
	Scale           float64
	Centre          [2]float64
	EscapeThreshold float32
	Iterations      int32
	Mode            params.SeedMode
	Smooth          bool
	InteriorBlack   bool
	InitialValue    [2]float32

	IterationExpr string
	ColourExpr    string

	// AdditionalWGSL is optional module-scope shader code, typically
	// helper functions the expressions call. Shipped inside the share
	// string with everything else.
	AdditionalWGSL string
}

// DefaultIterationExpr is the classic Mandelbrot advance.
const DefaultIterationExpr = "csquare(z) + c"

// DefaultColourExpr shades by normalised log iteration count.
const DefaultColourExpr = "hsv_rgb(vec3<f32>(log(n + 1.0) / log(f32(uniforms.iterations) + 1.0), 0.8, 0.8))"

// Default returns the settings of a fresh viewer. Scale zero means
// "frame the default span for whatever viewport comes up".
func Default() Settings {
	return Settings{
		EscapeThreshold: 2,
		Iterations:      100,
		Mode:            params.SeedZero,
		InteriorBlack:   true,
		IterationExpr:   DefaultIterationExpr,
		ColourExpr:      DefaultColourExpr,
	}
}

// Validate checks the parts of the settings the codec is responsible
// for. Formula validity is the shader package's concern.
func (s Settings) Validate() error {
	b := s.block()
	return b.Validate()
}

// block projects the iteration parameters onto a parameter block with a
// placeholder transform, for validation and flag packing.
func (s Settings) block() params.Block {
	return params.Block{
		Scale:           1,
		EscapeThreshold: s.EscapeThreshold,
		Iterations:      s.Iterations,
		Mode:            s.Mode,
		Smooth:          s.Smooth,
		InteriorBlack:   s.InteriorBlack,
		InitialValue:    s.InitialValue,
	}
}
