package mutelist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDocument is wrapped by every *ValidationError.
var ErrInvalidDocument = errors.New("mutelist: invalid document")

// Problem is a single structural defect at a document path such as
// Accounts["*"].Checks["s3_*"].Regions[2].
type Problem struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", p.Path, p.Line, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// ValidationError rejects a malformed document.
type ValidationError struct {
	Source   string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	src := ""
	if e.Source != "" {
		src = " " + e.Source
	}
	return fmt.Sprintf("mutelist: invalid document%s: %s", src, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}

// Warning is a non-fatal load-time finding, currently always a regular
// expression that does not compile.
type Warning struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}
