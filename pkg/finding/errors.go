package finding

import "errors"

// Sentinel errors for malformed findings.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidStatus indicates a status outside PASS, FAIL and MANUAL.
	ErrInvalidStatus = errors.New("finding: invalid status")

	// ErrInvalidFinding indicates a finding that is missing an identity
	// field the engine relies on (check id).
	ErrInvalidFinding = errors.New("finding: invalid finding")
)
