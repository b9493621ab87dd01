package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/complyscope/complyscope/pkg/compliance"
	"github.com/complyscope/complyscope/pkg/finding"
	"github.com/complyscope/complyscope/pkg/mutelist"
	"github.com/complyscope/complyscope/pkg/ui"
)

// runValidate loads the mutelist and the compliance catalog without
// evaluating anything. Unlike evaluate, an invalid mutelist is an error.
func runValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	skipCatalog := fs.Bool("mutelist-only", false, "Skip the compliance catalog")
	cfg, logger, err := parseFlags(fs, args, stdout, stderr)
	if err != nil {
		return fail(stderr, err)
	}

	var errs []error
	if err := validateMutelist(cfg.Mutelist, stdout, logger); err != nil {
		errs = append(errs, err)
	}
	if !*skipCatalog {
		catalog, err := loadCatalog(cfg, logger)
		if err != nil {
			printCatalogProblems(stdout, err)
			errs = append(errs, err)
		} else {
			reqs := 0
			for _, fw := range catalog.Frameworks() {
				reqs += len(fw.Requirements)
			}
			fmt.Fprintf(stdout, "%s %s: %d frameworks, %d requirements\n",
				ui.StatusBadge(finding.StatusPass), cfg.ComplianceDir, catalog.Len(), reqs)
		}
	}
	if len(errs) > 0 {
		return fail(stderr, errors.Join(errs...))
	}
	return 0
}

func validateMutelist(path string, stdout io.Writer, logger *slog.Logger) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stdout, "%s %s: not found, nothing will be muted\n", ui.StatusBadge(finding.StatusManual), path)
		return nil
	}
	doc, err := mutelist.LoadFile(path)
	if err != nil {
		var ve *mutelist.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(stdout, "%s %s: %d problems\n", ui.StatusBadge(finding.StatusFail), path, len(ve.Problems))
			for _, p := range ve.Problems {
				fmt.Fprintf(stdout, "    %s\n", p)
			}
		}
		return err
	}
	fmt.Fprintf(stdout, "%s %s: %d rules\n", ui.StatusBadge(finding.StatusPass), path, doc.Len())
	for _, ref := range doc.Rules() {
		fmt.Fprintf(stdout, "    %s / %s  regions=%s resources=%s",
			ref.Account, ref.Check, strings.Join(ref.Rule.Regions, ","), strings.Join(ref.Rule.Resources, ","))
		if len(ref.Rule.Tags) > 0 {
			fmt.Fprintf(stdout, " tags=%s", strings.Join(ref.Rule.Tags, ","))
		}
		if ref.Rule.Exceptions != nil {
			fmt.Fprint(stdout, " (with exceptions)")
		}
		fmt.Fprintln(stdout)
	}
	for _, w := range doc.Warnings() {
		fmt.Fprintf(stdout, "    %s %s\n", ui.WarningStyle.Render("warning:"), w)
		logger.Debug("pattern warning", slog.String("path", w.Path), slog.Any("error", w.Err))
	}
	return nil
}

// printCatalogProblems lists the problems of every rejected document.
func printCatalogProblems(stdout io.Writer, err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			printCatalogProblems(stdout, e)
		}
		return
	}
	var ve *compliance.ValidationError
	if !errors.As(err, &ve) {
		fmt.Fprintf(stdout, "%s %v\n", ui.StatusBadge(finding.StatusFail), err)
		return
	}
	fmt.Fprintf(stdout, "%s %s: %d problems\n", ui.StatusBadge(finding.StatusFail), ve.Source, len(ve.Problems))
	for _, p := range ve.Problems {
		fmt.Fprintf(stdout, "    %s\n", p)
	}
}
