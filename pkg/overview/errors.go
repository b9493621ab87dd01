package overview

import (
	"errors"
	"strings"
)

// ErrMissingFilter is wrapped by every *MissingFilterError.
var ErrMissingFilter = errors.New("overview: missing required filter")

// MissingFilterError reports the required filters a query omitted.
type MissingFilterError struct {
	Filters []string
}

func (e *MissingFilterError) Error() string {
	return ErrMissingFilter.Error() + ": " + strings.Join(e.Filters, ", ")
}

func (e *MissingFilterError) Unwrap() error {
	return ErrMissingFilter
}

func requireFilters(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return &MissingFilterError{Filters: missing}
	}
	return nil
}
