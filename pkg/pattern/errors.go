package pattern

import (
	"errors"
	"fmt"
)

// ErrCompile is the sentinel wrapped by every CompileError.
var ErrCompile = errors.New("pattern: compile error")

// CompileError reports a regular expression pattern that does not
// compile. It is a load-time warning, never a match-time failure.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pattern: cannot compile %q: %v", e.Pattern, e.Err)
}

// Unwrap lets errors.Is match both ErrCompile and the regexp error.
func (e *CompileError) Unwrap() []error {
	return []error{ErrCompile, e.Err}
}
