// Package defaults provides canonical default values for complyscope.
// This is the single source of truth for runtime configuration defaults.
//
// Usage:
//
//	cfg.Concurrency = defaults.Concurrency
//	path := filepath.Join(dir, defaults.MutelistFile)
package defaults

// Version is the current complyscope version.
const Version = "0.4.0"

// ToolName is the binary and telemetry service name.
const ToolName = "complyscope"

// ============================================================================
// FILES
// ============================================================================

const (
	// ConfigFile is the optional configuration file read from the working directory.
	ConfigFile = "complyscope.yaml"

	// MutelistFile is the default mutelist document.
	MutelistFile = "mutelist.yaml"

	// ComplianceDir holds the framework documents.
	ComplianceDir = "compliance"

	// OutputDir receives the evaluation report files.
	OutputDir = "output"
)

// ============================================================================
// CONCURRENCY
// ============================================================================

const (
	// Concurrency is the default number of scans evaluated in parallel.
	Concurrency = 4

	// ConcurrencyMax caps the -concurrency flag.
	ConcurrencyMax = 64
)

// ============================================================================
// TELEMETRY
// ============================================================================

const (
	// MetricsPath is the Prometheus scrape path.
	MetricsPath = "/metrics"

	// OTLPEndpoint is the default OpenTelemetry collector address.
	OTLPEndpoint = "localhost:4317"

	// MetricsNamespace prefixes every Prometheus metric.
	MetricsNamespace = "complyscope"
)
