// Package pipeline runs one scan's findings through the mutelist and the
// compliance aggregator in a single pass.
//
// Annotated findings are streamed to a Sink as soon as they are evaluated.
// Overviews and export rows are produced once the source is exhausted,
// since requirement statuses depend on the whole batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/complyscope/complyscope/pkg/aggregate"
	"github.com/complyscope/complyscope/pkg/compliance"
	"github.com/complyscope/complyscope/pkg/duration"
	"github.com/complyscope/complyscope/pkg/finding"
	"github.com/complyscope/complyscope/pkg/metrics"
	"github.com/complyscope/complyscope/pkg/mutelist"
	"github.com/complyscope/complyscope/pkg/overview"
	"github.com/complyscope/complyscope/pkg/pattern"
	"github.com/complyscope/complyscope/pkg/tracing"
)

var (
	// ErrMissingScanID is returned when ScanContext.ScanID is empty.
	ErrMissingScanID = errors.New("pipeline: missing scan id")

	// ErrInvalidMutelist is returned in strict mode when the mutelist
	// failed to load.
	ErrInvalidMutelist = errors.New("pipeline: invalid mutelist")
)

// Warning kinds, also used as the metrics label.
const (
	WarningMutelist = "mutelist"
	WarningPattern  = "pattern"
	WarningFinding  = "finding"
)

// Warning is a non-fatal problem attached to a scan report.
type Warning struct {
	Kind    string `json:"kind"`
	Source  string `json:"source,omitempty"`
	Path    string `json:"path,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	s := w.Message
	if w.Line > 0 {
		s = fmt.Sprintf("line %d: %s", w.Line, s)
	}
	if w.Path != "" {
		s = w.Path + ": " + s
	}
	if w.Source != "" {
		s = w.Source + ": " + s
	}
	return s
}

// ScanContext identifies the scan and the account context findings are
// evaluated in.
type ScanContext struct {
	ScanID string

	// AccountUID is the provider account context: AWS account id, Azure
	// subscription, Kubernetes cluster, M365 tenant or GitHub account.
	// Empty means each finding's own AccountUID.
	AccountUID string

	// AccountFor derives the account context per finding. It takes
	// precedence over AccountUID when it returns a non-empty value.
	AccountFor func(f *finding.Finding) string
}

func (sc *ScanContext) account(f *finding.Finding) string {
	if sc.AccountFor != nil {
		if acct := sc.AccountFor(f); acct != "" {
			return acct
		}
	}
	if sc.AccountUID != "" {
		return sc.AccountUID
	}
	return f.AccountUID
}

// Policy is the immutable input shared by scans: the catalog and the
// mutelist. MutelistErr records a failed mutelist load; the scan then
// runs with every mute rule disabled.
type Policy struct {
	Catalog     *compliance.Catalog
	Mutelist    *mutelist.Document
	MutelistErr error
}

// Options tunes processing. The zero value is usable.
type Options struct {
	// Statuses keeps only findings with one of these statuses. Empty keeps all.
	Statuses []finding.Status

	// Strict fails the scan instead of disabling an invalid mutelist.
	Strict bool

	// AssessmentDate stamps export rows. Zero leaves them unstamped.
	AssessmentDate time.Time

	Matcher *pattern.Matcher
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer

	// Store receives each successful result, replacing the scan's
	// previous one.
	Store *overview.Store
}

// Report is the outcome of one scan.
type Report struct {
	ScanID   string            `json:"scan_id"`
	Result   *aggregate.Result `json:"-"`
	Warnings []Warning         `json:"warnings"`

	Processed int `json:"processed"`
	Muted     int `json:"muted"`
	Failed    int `json:"failed"`
	Filtered  int `json:"filtered"`
	Skipped   int `json:"skipped"`
	MemoHits  int `json:"memo_hits"`
}

// HasFailures reports whether any unmuted FAIL finding was processed.
func (r *Report) HasFailures() bool {
	return r != nil && r.Failed > 0
}

func (r *Report) warn(m *metrics.Metrics, w Warning) {
	r.Warnings = append(r.Warnings, w)
	m.ObserveWarning(w.Kind)
}

// Process evaluates every finding from src against policy, writes the
// annotated findings to sink and returns the aggregated report.
//
// Findings failing validation are skipped with a warning. A sink or
// source error aborts the scan.
func Process(ctx context.Context, sc ScanContext, policy Policy, src Source, sink Sink, opts Options) (rep *Report, err error) {
	if sc.ScanID == "" {
		return nil, ErrMissingScanID
	}
	log := orDefault(opts.Logger).With("scan_id", sc.ScanID)
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Noop().Tracer()
	}
	if sink == nil {
		sink = Discard
	}

	ctx, span := tracer.Start(ctx, "complyscope.scan", trace.WithAttributes(
		attribute.String("scan_id", sc.ScanID),
		attribute.Int("frameworks", policy.Catalog.Len()),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		opts.Metrics.ObserveStage(metrics.StageScan, time.Since(start))
		opts.Metrics.ObserveScan(err)
	}()

	rep = &Report{ScanID: sc.ScanID, Warnings: []Warning{}}

	doc, err := mutelistFor(policy, opts, rep)
	if err != nil {
		return nil, err
	}
	if len(rep.Warnings) > 0 {
		log.Warn("mutelist warnings", "warnings", len(rep.Warnings))
	}

	evalOpts := []mutelist.Option{mutelist.WithLogger(opts.Logger)}
	if opts.Matcher != nil {
		evalOpts = append(evalOpts, mutelist.WithMatcher(opts.Matcher))
	}
	pass := mutelist.NewEvaluator(doc, evalOpts...).NewPass()

	var aggOpts []aggregate.Option
	if !opts.AssessmentDate.IsZero() {
		aggOpts = append(aggOpts, aggregate.WithAssessmentDate(opts.AssessmentDate))
	}
	agg := aggregate.New(policy.Catalog, sc.ScanID, aggOpts...)

	keep := statusSet(opts.Statuses)
	progress := rate.Sometimes{Interval: duration.ProgressLog}
	muteStart := time.Now()
	_, muteSpan := tracer.Start(ctx, "complyscope.mute")
	err = src(func(f finding.Finding) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.Validate(); err != nil {
			rep.Skipped++
			rep.warn(opts.Metrics, Warning{Kind: WarningFinding, Message: err.Error()})
			return nil
		}
		if keep != nil && !keep[f.Status] {
			rep.Filtered++
			return nil
		}
		if f.ScanID == "" {
			f.ScanID = sc.ScanID
		}

		f, d := pass.Apply(f, sc.account(&f))
		if f.Compliance == nil {
			policy.Catalog.Annotate(&f)
		}
		rep.Processed++
		switch {
		case d.Muted:
			rep.Muted++
		case f.Status == finding.StatusFail:
			rep.Failed++
		}
		opts.Metrics.ObserveFinding(f.Status, f.Muted)

		if err := sink.Write(f); err != nil {
			return fmt.Errorf("pipeline: write finding %s: %w", f.CheckID, err)
		}
		agg.Add(f)
		progress.Do(func() {
			log.Debug("evaluating findings", "processed", rep.Processed, "muted", rep.Muted)
		})
		return nil
	})
	rep.MemoHits = pass.Hits()
	muteSpan.SetAttributes(
		attribute.Int("processed", rep.Processed),
		attribute.Int("muted", rep.Muted),
		attribute.Int("memo_hits", rep.MemoHits),
	)
	muteSpan.End()
	opts.Metrics.ObserveStage(metrics.StageMute, time.Since(muteStart))
	if err != nil {
		return nil, err
	}

	aggStart := time.Now()
	_, aggSpan := tracer.Start(ctx, "complyscope.aggregate")
	rep.Result = agg.Result()
	aggSpan.SetAttributes(attribute.Int("rows", len(rep.Result.Rows)))
	aggSpan.End()
	opts.Metrics.ObserveStage(metrics.StageAggregate, time.Since(aggStart))
	opts.Metrics.ObserveOverviews(rep.Result.Overviews)

	if opts.Store != nil {
		if err := opts.Store.Replace(rep.Result); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Int("processed", rep.Processed),
		attribute.Int("muted", rep.Muted),
		attribute.Int("warnings", len(rep.Warnings)),
	)
	log.Info("scan evaluated",
		"processed", rep.Processed,
		"muted", rep.Muted,
		"failed", rep.Failed,
		"warnings", len(rep.Warnings),
	)
	return rep, nil
}

// mutelistFor returns the document to evaluate with, turning load
// failures and pattern problems into warnings.
func mutelistFor(policy Policy, opts Options, rep *Report) (*mutelist.Document, error) {
	if policy.MutelistErr != nil {
		if opts.Strict {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMutelist, policy.MutelistErr)
		}
		var ve *mutelist.ValidationError
		if errors.As(policy.MutelistErr, &ve) {
			for _, p := range ve.Problems {
				rep.warn(opts.Metrics, Warning{
					Kind:    WarningMutelist,
					Source:  ve.Source,
					Path:    p.Path,
					Line:    p.Line,
					Message: p.Message,
				})
			}
		}
		if len(rep.Warnings) == 0 {
			rep.warn(opts.Metrics, Warning{Kind: WarningMutelist, Message: policy.MutelistErr.Error()})
		}
		rep.warn(opts.Metrics, Warning{Kind: WarningMutelist, Message: "mute rules disabled for this scan"})
		return mutelist.Empty(), nil
	}

	doc := policy.Mutelist
	if doc == nil {
		return mutelist.Empty(), nil
	}
	for _, w := range doc.Warnings() {
		rep.warn(opts.Metrics, Warning{
			Kind:    WarningPattern,
			Source:  doc.Source(),
			Path:    w.Path,
			Message: w.Err.Error(),
		})
	}
	return doc, nil
}

func statusSet(statuses []finding.Status) map[finding.Status]bool {
	if len(statuses) == 0 {
		return nil
	}
	set := make(map[finding.Status]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
