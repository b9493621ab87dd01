// Package duration provides canonical time constants for complyscope.
// This is the single source of truth for time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.ScanEvaluation)
//	ReadTimeout: duration.MetricsRead,
//
// Do not write literal durations like `5 * time.Second` in struct fields;
// reference a constant from this package instead.
package duration

import "time"

// ============================================================================
// EVALUATION
// ============================================================================

const (
	// ScanEvaluation bounds one scan's mute and aggregation pass (30min)
	ScanEvaluation = 30 * time.Minute

	// ProgressLog is the minimum gap between progress log lines during a scan (5s)
	ProgressLog = 5 * time.Second
)

// ============================================================================
// METRICS SERVER
// ============================================================================

const (
	// MetricsRead is the metrics HTTP server read timeout (5s)
	MetricsRead = 5 * time.Second

	// MetricsWrite is the metrics HTTP server write timeout (10s)
	MetricsWrite = 10 * time.Second
)

// ============================================================================
// TELEMETRY
// ============================================================================

const (
	// ExporterConnect bounds establishing the OTLP exporter connection (10s)
	ExporterConnect = 10 * time.Second

	// Shutdown bounds flushing telemetry and stopping servers on exit (5s)
	Shutdown = 5 * time.Second
)
