package defaults

// Exit codes for the CLI.
const (
	ExitSuccess         = 0 // Clean exit
	ExitFailedFindings  = 1 // Unmuted failing findings remain (with -fail-on-findings)
	ExitUserError       = 2 // Invalid arguments or configuration
	ExitInvalidDocument = 3 // Mutelist or framework document rejected
	ExitInternalError   = 4 // Unexpected internal error
)
