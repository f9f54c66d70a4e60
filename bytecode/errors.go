package bytecode

import "fmt"

// SemanticError is a diagnostic raised while walking the AST: an unknown
// variable reference, an unresolved type, or a function handle missing at
// emit time. These are printed but never abort emission — the offending
// instruction site is simply skipped.
type SemanticError struct {
	Line    int32
	Column  int
	Message string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("💥 FoxScript semantic error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// CreateSemanticError builds a SemanticError, matching the constructor
// shape used by parser.CreateSyntaxError.
func CreateSemanticError(line int32, column int, message string) error {
	return &SemanticError{Line: line, Column: column, Message: message}
}

// DeveloperError reports an emitter-internal invariant violation — a bug
// in this package, not in the script being compiled (bounds overrun on a
// backpatch write, a register double-allocation). It should never surface
// from a well-formed AST; its presence in a stack trace means the emitter
// itself has a defect.
type DeveloperError struct {
	Message string
}

func (e *DeveloperError) Error() string {
	return "💥 FoxScript emitter internal error: " + e.Message
}
