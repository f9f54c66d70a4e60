package vm

import "fmt"

// RuntimeError is a diagnostic raised during execution: stack underflow,
// a missing external function on call-external, or PC running out of
// bounds. These are printed but, except for an out-of-bounds PC, don't
// halt the run.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Message)
}
