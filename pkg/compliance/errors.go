package compliance

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidFramework is wrapped by every *ValidationError.
	ErrInvalidFramework = errors.New("compliance: invalid framework")

	// ErrUnknownFramework is returned when a framework id is not in the catalog.
	ErrUnknownFramework = errors.New("compliance: unknown framework")

	// ErrDuplicateFramework is returned when two documents share an id.
	ErrDuplicateFramework = errors.New("compliance: duplicate framework id")
)

// Problem is one defect in a framework document.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return p.Path + ": " + p.Message
}

// ValidationError rejects a malformed framework document.
type ValidationError struct {
	Source   string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("compliance: invalid framework %s: %s", e.Source, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidFramework
}
