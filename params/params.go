// Package params defines the parameter block shared between the host
// and the fractal shader, together with its 32-byte wire codec. The
// same encoding serves as the GPU uniform upload and as the binary body
// of exported configurations.
package params

import (
	"errors"
	"fmt"
)

// SeedMode says how z and c are seeded for a pixel whose complex
// coordinate is p.
type SeedMode uint8

const (
	// SeedZero starts from the origin: z = 0 + initial value, c = p.
	SeedZero SeedMode = iota
	// SeedCoordinate starts from the coordinate itself: z = p + initial
	// value, c = p, and the iteration counter begins at one because the
	// first application of the formula is implicit in the seed.
	SeedCoordinate
	// SeedJulia fixes c at the initial value and seeds z = p.
	SeedJulia
)

func (m SeedMode) String() string {
	switch m {
	case SeedZero:
		return "zero"
	case SeedCoordinate:
		return "coordinate"
	case SeedJulia:
		return "julia"
	}
	return fmt.Sprintf("SeedMode(%d)", uint8(m))
}

// Shader-side flag bits. Must match the FLAG_ constants in
// shader/shaders/prelude.wgsl.
const (
	flagJuliaSet      uint32 = 1 << 0
	flagSmoothen      uint32 = 1 << 1
	flagInternalBlack uint32 = 1 << 2
	flagInitialC      uint32 = 1 << 3

	flagsKnown = flagJuliaSet | flagSmoothen | flagInternalBlack | flagInitialC
)

var (
	// ErrConflictingSeed marks an encoded flag word that requests the
	// Julia and coordinate seedings at the same time. No block the host
	// can express encodes to that combination.
	ErrConflictingSeed = errors.New("params: julia and coordinate seeding are mutually exclusive")
	// ErrUnknownFlags marks reserved flag bits that are set.
	ErrUnknownFlags = errors.New("params: unknown flag bits")
)

// Block is the full per-frame parameter set.
type Block struct {
	Scale           float32    // fractal units per screen unit
	EscapeThreshold float32    // |z| at which a point counts as escaped
	Centre          [2]float32 // shader-space centre offset
	Iterations      int32
	Mode            SeedMode
	Smooth          bool // fractional iteration smoothing
	InteriorBlack   bool // paint never-escaping points black
	InitialValue    [2]float32
}

// Validate reports whether the block describes a renderable frame.
func (b Block) Validate() error {
	if b.EscapeThreshold <= 0 {
		return fmt.Errorf("params: escape threshold %v is not positive", b.EscapeThreshold)
	}
	if b.Iterations < 1 {
		return fmt.Errorf("params: iteration limit %d is below 1", b.Iterations)
	}
	switch b.Mode {
	case SeedZero, SeedCoordinate, SeedJulia:
	default:
		return fmt.Errorf("params: unknown seed mode %d", uint8(b.Mode))
	}
	return nil
}

// PackFlags folds a seed mode and the two toggles into the shader's
// flag word.
func PackFlags(mode SeedMode, smooth, interiorBlack bool) uint32 {
	var f uint32
	switch mode {
	case SeedJulia:
		f |= flagJuliaSet
	case SeedCoordinate:
		f |= flagInitialC
	}
	if smooth {
		f |= flagSmoothen
	}
	if interiorBlack {
		f |= flagInternalBlack
	}
	return f
}

// UnpackFlags is the inverse of PackFlags. Flag words that no Block
// encodes to are rejected rather than reinterpreted.
func UnpackFlags(f uint32) (mode SeedMode, smooth, interiorBlack bool, err error) {
	if f&^flagsKnown != 0 {
		return 0, false, false, fmt.Errorf("%w: %#x", ErrUnknownFlags, f&^flagsKnown)
	}
	julia := f&flagJuliaSet != 0
	initialC := f&flagInitialC != 0
	switch {
	case julia && initialC:
		return 0, false, false, ErrConflictingSeed
	case julia:
		mode = SeedJulia
	case initialC:
		mode = SeedCoordinate
	default:
		mode = SeedZero
	}
	return mode, f&flagSmoothen != 0, f&flagInternalBlack != 0, nil
}

// Flags returns the block's shader flag word.
func (b Block) Flags() uint32 {
	return PackFlags(b.Mode, b.Smooth, b.InteriorBlack)
}
