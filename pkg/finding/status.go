package finding

import "strings"

// Status is the check outcome recorded upstream. Values are uppercase,
// matching the scanner output and the compliance export rows.
type Status string

const (
	// StatusPass means the resource satisfies the check.
	StatusPass Status = "PASS"

	// StatusFail means the resource violates the check.
	StatusFail Status = "FAIL"

	// StatusManual means the check cannot be assessed automatically.
	StatusManual Status = "MANUAL"

	// StatusMuted is a display-only status. It is never stored in
	// Finding.Status; see Finding.DisplayStatus.
	StatusMuted Status = "MUTED"
)

// IsValid reports whether s is a status a scanner may emit.
// StatusMuted is not valid input.
func (s Status) IsValid() bool {
	switch s {
	case StatusPass, StatusFail, StatusManual:
		return true
	}
	return false
}

// String returns the status as a string.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a case-insensitive status name into a Status.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Delta describes how a finding changed relative to the previous scan.
type Delta string

const (
	DeltaNew       Delta = "new"
	DeltaChanged   Delta = "changed"
	DeltaUnchanged Delta = "unchanged"
)

// IsValid reports whether d is a known delta. The empty delta is valid
// and means the previous scan was not compared.
func (d Delta) IsValid() bool {
	switch d {
	case "", DeltaNew, DeltaChanged, DeltaUnchanged:
		return true
	}
	return false
}
