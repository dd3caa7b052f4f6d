// Package shader turns user-supplied WGSL expressions into compiled
// fractal render programs. A master template carries the escape-time
// loop; the iteration and colour expressions are validated in isolation,
// spliced into the template, and the whole program is compiled to
// SPIR-V on the host.
package shader

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
)

//go:embed shaders/prelude.wgsl
var preludeWGSL string

//go:embed shaders/fractal.wgsl
var fractalWGSL string

// templateWGSL is the master shader the substitution markers live in.
var templateWGSL = preludeWGSL + fractalWGSL

const (
	markerEquation = "REPLACE_FRACTAL_EQN"
	markerColour   = "REPLACE_COLOR"

	// The iteration expression is spliced at the loop advance and at
	// the two smoothing steps; the colour expression appears once.
	equationSites = 3
	colourSites   = 1
)

func init() {
	// A template that drifted away from the expected marker layout is a
	// programmer defect, not a runtime condition.
	if n := strings.Count(templateWGSL, markerEquation); n != equationSites {
		panic(fmt.Sprintf("shader: template has %d %s markers, want %d", n, markerEquation, equationSites))
	}
	if n := strings.Count(templateWGSL, markerColour); n != colourSites {
		panic(fmt.Sprintf("shader: template has %d %s markers, want %d", n, markerColour, colourSites))
	}
}

// FormulaPair is the pair of user expressions that define a fractal,
// plus optional supporting WGSL.
type FormulaPair struct {
	Iteration string // next z, in terms of z and c
	Colour    string // pixel colour, in terms of n, z and c

	// Additional is module-scope WGSL appended after the template,
	// typically helper functions the expressions call. May be empty.
	Additional string
}

// Program is a fully assembled and compiled fractal shader. It is
// immutable once built.
type Program struct {
	Pair   FormulaPair
	Source string   // assembled WGSL
	SPIRV  []uint32 // compiled module, ready for the GPU backend
}

// Assemble validates the additional WGSL and both expressions, splices
// the expressions into the master template, appends the additional
// WGSL and compiles the result. Assembling the same pair twice yields
// identical programs. Validation failures come back as
// *ValidationError; a failure of the combined program, which can only
// be caused by an interaction between an expression and its splice
// site, comes back as *CompileError.
func Assemble(pair FormulaPair) (*Program, error) {
	if err := ValidateAdditional(pair.Additional); err != nil {
		return nil, err
	}
	if err := ValidateWith(pair.Iteration, ExprIteration, pair.Additional); err != nil {
		return nil, err
	}
	if err := ValidateWith(pair.Colour, ExprColour, pair.Additional); err != nil {
		return nil, err
	}

	src := strings.ReplaceAll(templateWGSL, markerEquation, pair.Iteration)
	src = strings.ReplaceAll(src, markerColour, pair.Colour)
	if pair.Additional != "" {
		src += "\n" + pair.Additional
	}

	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, &CompileError{Message: err.Error()}
	}
	words, err := spirvWords(spirv)
	if err != nil {
		return nil, &CompileError{Message: err.Error()}
	}

	return &Program{Pair: pair, Source: src, SPIRV: words}, nil
}

// spirvWords converts compiler output to the word stream the GPU
// backend consumes. SPIR-V is little-endian on the wire.
func spirvWords(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V length %d is not word aligned", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words, nil
}
