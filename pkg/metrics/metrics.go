// Package metrics exposes evaluation metrics for Prometheus scraping.
//
// Collectors live on a private registry so embedding applications keep
// control of the default registry. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/complyscope/complyscope/pkg/aggregate"
	"github.com/complyscope/complyscope/pkg/defaults"
	"github.com/complyscope/complyscope/pkg/duration"
	"github.com/complyscope/complyscope/pkg/finding"
)

// Stage names used as the duration label.
const (
	StageMute      = "mute"
	StageAggregate = "aggregate"
	StageScan      = "scan"
)

// Metrics holds the evaluation collectors.
type Metrics struct {
	registry *prometheus.Registry

	findingsTotal *prometheus.CounterVec
	warningsTotal *prometheus.CounterVec
	scansTotal    *prometheus.CounterVec
	requirements  *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() (*Metrics, error) {
	ns := defaults.MetricsNamespace
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "findings_processed_total",
			Help:      "Findings evaluated against the mutelist, by status and mute verdict",
		}, []string{"status", "muted"}),
		warningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "warnings_total",
			Help:      "Non-fatal warnings attached to scan results",
		}, []string{"kind"}),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "scans_total",
			Help:      "Scans evaluated, by outcome",
		}, []string{"outcome"}),
		requirements: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "requirements",
			Help:      "Requirement statuses of the most recent scan per framework",
		}, []string{"compliance_id", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "stage_duration_seconds",
			Help:      "Time spent per evaluation stage",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage"}),
	}

	for _, c := range []prometheus.Collector{
		m.findingsTotal,
		m.warningsTotal,
		m.scansTotal,
		m.requirements,
		m.stageDuration,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return m, nil
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveFinding counts one evaluated finding.
func (m *Metrics) ObserveFinding(status finding.Status, muted bool) {
	if m == nil {
		return
	}
	m.findingsTotal.WithLabelValues(string(status), fmt.Sprint(muted)).Inc()
}

// ObserveWarning counts one warning of the given kind.
func (m *Metrics) ObserveWarning(kind string) {
	if m == nil {
		return
	}
	m.warningsTotal.WithLabelValues(kind).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveScan counts a finished scan.
func (m *Metrics) ObserveScan(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.scansTotal.WithLabelValues(outcome).Inc()
}

// ObserveOverviews publishes the requirement tallies of a scan.
func (m *Metrics) ObserveOverviews(overviews []aggregate.ComplianceOverview) {
	if m == nil {
		return
	}
	for _, ov := range overviews {
		m.requirements.WithLabelValues(ov.ComplianceID, string(finding.StatusPass)).Set(float64(ov.RequirementsPassed))
		m.requirements.WithLabelValues(ov.ComplianceID, string(finding.StatusFail)).Set(float64(ov.RequirementsFailed))
		m.requirements.WithLabelValues(ov.ComplianceID, string(finding.StatusManual)).Set(float64(ov.RequirementsManual))
	}
}

// Server serves the metrics endpoint.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Serve starts an HTTP server for m on addr. It returns once the listener
// is bound; serving continues in the background until Close.
func Serve(addr string, m *Metrics, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(defaults.MetricsPath, m.Handler())
	s := &Server{
		ln: ln,
		srv: &http.Server{
			Handler:      mux,
			ReadTimeout:  duration.MetricsRead,
			WriteTimeout: duration.MetricsWrite,
		},
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
	logger.Debug("metrics server listening", slog.String("addr", ln.Addr().String()))
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close shuts the server down, waiting up to duration.Shutdown.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), duration.Shutdown)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
