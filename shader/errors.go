package shader

import (
	"errors"
	"fmt"
)

// ErrEmptyExpression is returned when an expression is blank or contains
// only whitespace.
var ErrEmptyExpression = errors.New("shader: empty expression")

// ValidationError reports a user expression that the compiler rejected
// before it was spliced into the render shader. Message carries the
// compiler diagnostic verbatim.
type ValidationError struct {
	Site    string // "iteration", "colour" or "additional"
	Expr    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("shader: invalid %s expression: %s", e.Site, e.Message)
}

// CompileError reports that the fully assembled shader failed to
// compile even though both expressions passed validation in isolation.
// This happens when an expression interacts badly with its splice site,
// for example by shadowing one of the ambient bindings.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader: assembled program rejected: %s", e.Message)
}
