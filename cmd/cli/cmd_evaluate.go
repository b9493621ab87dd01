package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/complyscope/complyscope/pkg/aggregate"
	"github.com/complyscope/complyscope/pkg/config"
	"github.com/complyscope/complyscope/pkg/defaults"
	"github.com/complyscope/complyscope/pkg/jsonutil"
	"github.com/complyscope/complyscope/pkg/metrics"
	"github.com/complyscope/complyscope/pkg/mutelist"
	"github.com/complyscope/complyscope/pkg/overview"
	"github.com/complyscope/complyscope/pkg/pipeline"
	"github.com/complyscope/complyscope/pkg/regexcache"
	"github.com/complyscope/complyscope/pkg/tracing"
	"github.com/complyscope/complyscope/pkg/ui"
)

// scanReport is the per-scan overview file.
type scanReport struct {
	ScanID       string                          `json:"scan_id"`
	Findings     string                          `json:"findings"`
	Metadata     overview.Metadata               `json:"metadata"`
	Overviews    []aggregate.ComplianceOverview  `json:"overviews"`
	Requirements []aggregate.RequirementOverview `json:"requirements"`
	Warnings     []pipeline.Warning              `json:"warnings"`
	Processed    int                             `json:"processed"`
	Muted        int                             `json:"muted"`
	Failed       int                             `json:"failed"`
}

func runEvaluate(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	cfg, logger, err := parseFlags(fs, args, stdout, stderr)
	if err != nil {
		return fail(stderr, err)
	}

	inputs := fs.Args()
	if cfg.Findings != "" {
		inputs = append([]string{cfg.Findings}, inputs...)
	}
	if len(inputs) == 0 {
		return fail(stderr, cfg.RequireFindings())
	}

	if ui.IsTerminal(stderr) {
		printEvaluateBanner(stderr, cfg, inputs)
	}
	code, err := evaluate(ctx, cfg, inputs, stdin, stdout, logger)
	if err != nil {
		return fail(stderr, err)
	}
	return code
}

func evaluate(ctx context.Context, cfg *config.Config, inputs []string, stdin io.Reader, stdout io.Writer, logger *slog.Logger) (int, error) {
	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		return 0, err
	}
	doc, mlErr := mutelist.LoadFile(cfg.Mutelist, mutelist.WithCache(regexcache.Default()))
	if mlErr != nil {
		logger.Warn("mutelist rejected, mute rules disabled", slog.String("path", cfg.Mutelist), slog.Any("error", mlErr))
	} else {
		logger.Debug("mutelist loaded",
			slog.String("path", cfg.Mutelist),
			slog.Int("rules", doc.Len()),
			slog.Int("cached_patterns", regexcache.Default().Size()),
		)
	}
	statuses, err := cfg.StatusFilter()
	if err != nil {
		return 0, err
	}
	summaryTmpl, err := loadSummaryTemplate(cfg.SummaryTemplate)
	if err != nil {
		return 0, err
	}

	m, err := metrics.New()
	if err != nil {
		return 0, err
	}
	if cfg.MetricsAddr != "" {
		srv, err := metrics.Serve(cfg.MetricsAddr, m, logger)
		if err != nil {
			return 0, err
		}
		defer srv.Close()
	}
	tp, err := tracing.New(ctx, tracing.Options{Endpoint: cfg.OTLPEndpoint, Insecure: cfg.OTLPInsecure})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("trace shutdown", slog.Any("error", err))
		}
	}()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	opts := pipeline.Options{
		Statuses: statuses,
		Strict:   cfg.Strict,
		Logger:   logger,
		Metrics:  m,
		Tracer:   tp.Tracer(),
		Store:    overview.NewStore(),
	}
	if cfg.Timestamp {
		opts.AssessmentDate = time.Now().UTC()
	}
	policy := pipeline.Policy{Catalog: catalog, Mutelist: doc, MutelistErr: mlErr}

	jobs := make([]pipeline.Job, 0, len(inputs))
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	for i, input := range inputs {
		scanID := scanIDFor(cfg.ScanID, i, len(inputs))
		src, closeSrc, err := openSource(input, stdin)
		if err != nil {
			return 0, err
		}
		closers = append(closers, closeSrc)

		out, err := os.Create(filepath.Join(cfg.OutputDir, scanID+".findings.jsonl"))
		if err != nil {
			return 0, fmt.Errorf("create findings output: %w", err)
		}
		closers = append(closers, out)

		jobs = append(jobs, pipeline.Job{
			Scan:   pipeline.ScanContext{ScanID: scanID, AccountUID: cfg.AccountUID},
			Policy: policy,
			Source: src,
			Sink:   pipeline.NewJSONLSink(out),
		})
	}

	runner := pipeline.NewRunner(cfg.Concurrency, opts)
	reports, errs := runner.Run(ctx, jobs)
	runner.Close()

	code := defaults.ExitSuccess
	var runErrs []error
	for i, rep := range reports {
		if errs[i] != nil {
			runErrs = append(runErrs, errs[i])
			continue
		}
		if err := writeScanReport(cfg.OutputDir, inputs[i], rep, opts.Store); err != nil {
			return 0, err
		}

		summary := summaryOf(rep, cfg.OutputDir)
		if summaryTmpl != nil {
			if err := ui.RenderSummary(stdout, summaryTmpl, summary); err != nil {
				return 0, err
			}
		} else {
			ui.PrintSummary(stdout, summary)
		}
		if cfg.Verbose {
			if err := printRequirementStatus(stdout, rep.ScanID, opts.Store); err != nil {
				return 0, err
			}
		}
		if rep.HasFailures() {
			code = defaults.ExitFailedFindings
		}
	}
	logger.Debug("scans evaluated", slog.Any("scans", opts.Store.Scans()))
	if len(runErrs) > 0 {
		return 0, errors.Join(runErrs...)
	}
	return code, nil
}

func printEvaluateBanner(w io.Writer, cfg *config.Config, inputs []string) {
	ui.PrintBanner(w)
	ui.PrintOption(w, "Findings", strings.Join(inputs, ", "))
	ui.PrintOption(w, "Mutelist", cfg.Mutelist)
	ui.PrintOption(w, "Compliance dir", cfg.ComplianceDir)
	ui.PrintOption(w, "Output dir", cfg.OutputDir)
	if !ui.IsSilent() {
		fmt.Fprintln(w)
	}
}

// printRequirementStatus lists every requirement of a stored scan,
// framework by framework.
func printRequirementStatus(w io.Writer, scanID string, store *overview.Store) error {
	ovs, err := store.Overviews(overview.Filter{ScanID: scanID})
	if err != nil {
		return err
	}
	for _, ov := range ovs {
		reqs, err := store.Requirements(scanID, ov.ComplianceID)
		if err != nil {
			return err
		}
		if !ui.IsSilent() {
			fmt.Fprintln(w, ui.SectionStyle.Render(ov.ComplianceID))
		}
		ui.PrintRequirements(w, reqs)
	}
	return nil
}

// scanIDFor returns the configured id for a single input, a suffixed id
// per input when several are given, and a fresh uuid otherwise.
func scanIDFor(configured string, i, n int) string {
	switch {
	case configured == "":
		return uuid.NewString()
	case n == 1:
		return configured
	default:
		return fmt.Sprintf("%s-%d", configured, i+1)
	}
}

func openSource(path string, stdin io.Reader) (pipeline.Source, io.Closer, error) {
	if path == "-" {
		return pipeline.ReaderSource(stdin), io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open findings: %w", err)
	}
	return pipeline.ReaderSource(f), f, nil
}

func writeScanReport(dir, input string, rep *pipeline.Report, store *overview.Store) error {
	ovs, err := store.Overviews(overview.Filter{ScanID: rep.ScanID})
	if err != nil {
		return err
	}
	md, err := store.Metadata(rep.ScanID)
	if err != nil {
		return err
	}
	out := scanReport{
		ScanID:       rep.ScanID,
		Findings:     input,
		Metadata:     md,
		Overviews:    ovs,
		Requirements: []aggregate.RequirementOverview{},
		Warnings:     rep.Warnings,
		Processed:    rep.Processed,
		Muted:        rep.Muted,
		Failed:       rep.Failed,
	}
	for _, ov := range ovs {
		reqs, err := store.Requirements(rep.ScanID, ov.ComplianceID)
		if err != nil {
			return err
		}
		out.Requirements = append(out.Requirements, reqs...)

		rows, err := store.Rows(rep.ScanID, ov.ComplianceID)
		if err != nil {
			return err
		}
		if err := writeRows(filepath.Join(dir, rep.ScanID+"_"+ov.ComplianceID+".jsonl"), rows); err != nil {
			return err
		}
	}

	data, err := jsonutil.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode overview: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, rep.ScanID+".overview.json"), append(data, '\n'), 0o644)
}

func writeRows(path string, rows []aggregate.Row) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create compliance output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	enc := jsonutil.NewStreamEncoder(f)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}
	return nil
}

func loadSummaryTemplate(path string) (*template.Template, error) {
	if path == "" {
		return nil, nil
	}
	return ui.LoadTemplate(path)
}

func summaryOf(rep *pipeline.Report, outputDir string) ui.Summary {
	s := ui.Summary{
		ScanID:    rep.ScanID,
		Processed: rep.Processed,
		Muted:     rep.Muted,
		Failed:    rep.Failed,
		Filtered:  rep.Filtered,
		Skipped:   rep.Skipped,
		Overviews: rep.Result.Overviews,
		OutputDir: outputDir,
	}
	for _, w := range rep.Warnings {
		s.Warnings = append(s.Warnings, w.String())
	}
	return s
}
