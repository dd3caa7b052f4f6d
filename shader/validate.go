package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga"
)

// ExprKind selects the splice site an expression is checked against.
type ExprKind int

const (
	// ExprIteration is the z-advance expression. It must evaluate to
	// vec2<f32> and may reference z and c.
	ExprIteration ExprKind = iota
	// ExprColour is the colouring expression. It must evaluate to
	// vec3<f32> and may reference n, z and c.
	ExprColour
)

func (k ExprKind) String() string {
	if k == ExprColour {
		return "colour"
	}
	return "iteration"
}

// Validate checks a user expression without touching the GPU. The
// expression is wrapped in a minimal probe module that declares the same
// uniforms, helper functions and ambient bindings the real splice site
// provides, and the probe is run through the shader compiler. A nil
// return means the expression is well formed and has the right type for
// its site; any diagnostic from the compiler is reported verbatim in a
// *ValidationError.
func Validate(expr string, kind ExprKind) error {
	return ValidateWith(expr, kind, "")
}

// ValidateWith checks an expression with additional module-scope WGSL
// in scope, so expressions may call helpers they ship alongside.
func ValidateWith(expr string, kind ExprKind, additional string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("%w (%s)", ErrEmptyExpression, kind)
	}
	if _, err := naga.Compile(probeSource(expr, kind, additional)); err != nil {
		return &ValidationError{Site: kind.String(), Expr: expr, Message: err.Error()}
	}
	return nil
}

// ValidateAdditional checks user-supplied module-scope WGSL on its own,
// so a broken helper is attributed to the appendix rather than to
// whichever expression happens to call it. Empty input is valid.
func ValidateAdditional(additional string) error {
	if strings.TrimSpace(additional) == "" {
		return nil
	}
	src := preludeWGSL + additional +
		"\n@fragment\nfn fs_main() -> @location(0) vec4<f32> {\n" +
		"    return vec4<f32>(0.0, 0.0, 0.0, 1.0);\n}\n"
	if _, err := naga.Compile(src); err != nil {
		return &ValidationError{Site: "additional", Expr: additional, Message: err.Error()}
	}
	return nil
}

// probeSource builds a throwaway module exposing the ambient bindings
// of the splice site as function parameters. The expression is stored
// into a variable of the type the site requires; the compiler has to
// type-check the assignment, so a declared return type alone is not
// relied on.
func probeSource(expr string, kind ExprKind, additional string) string {
	var b strings.Builder
	b.WriteString(preludeWGSL)
	if additional != "" {
		b.WriteString(additional)
		b.WriteString("\n")
	}
	if kind == ExprColour {
		b.WriteString("fn probe(n: f32, z: vec2<f32>, c: vec2<f32>) -> vec3<f32> {\n")
		b.WriteString("    var rgb: vec3<f32> = vec3<f32>(0.0, 0.0, 0.0);\n")
		b.WriteString("    rgb = ")
		b.WriteString(expr)
		b.WriteString(";\n    return rgb;\n}\n")
		b.WriteString("@fragment\nfn fs_main() -> @location(0) vec4<f32> {\n")
		b.WriteString("    return vec4<f32>(probe(0.0, vec2<f32>(0.0, 0.0), vec2<f32>(0.0, 0.0)), 1.0);\n}\n")
	} else {
		b.WriteString("fn probe(z: vec2<f32>, c: vec2<f32>) -> vec2<f32> {\n")
		b.WriteString("    var next: vec2<f32> = z;\n")
		b.WriteString("    next = ")
		b.WriteString(expr)
		b.WriteString(";\n    return next;\n}\n")
		b.WriteString("@fragment\nfn fs_main() -> @location(0) vec4<f32> {\n")
		b.WriteString("    return vec4<f32>(probe(vec2<f32>(0.0, 0.0), vec2<f32>(0.0, 0.0)), 0.0, 1.0);\n}\n")
	}
	return b.String()
}
