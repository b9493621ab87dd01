package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/complyscope/complyscope/pkg/jsonutil"
	"github.com/complyscope/complyscope/pkg/overview"
	"github.com/complyscope/complyscope/pkg/ui"
)

type frameworkInfo struct {
	ID           string `json:"compliance_id"`
	Framework    string `json:"framework"`
	Version      string `json:"version"`
	Provider     string `json:"provider"`
	Requirements int    `json:"requirements"`
	Manual       int    `json:"manual"`
	Checks       int    `json:"checks"`
}

func runFrameworks(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("frameworks", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	cfg, logger, err := parseFlags(fs, args, stdout, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		return fail(stderr, err)
	}

	infos := make([]frameworkInfo, 0, catalog.Len())
	for _, fw := range catalog.Frameworks() {
		infos = append(infos, frameworkInfo{
			ID:           fw.ID,
			Framework:    fw.Name,
			Version:      fw.Version,
			Provider:     fw.Provider,
			Requirements: len(fw.Requirements),
			Manual:       fw.ManualCount(),
			Checks:       len(fw.Checks()),
		})
	}
	if *asJSON {
		return printJSON(stdout, stderr, infos)
	}

	fmt.Fprintln(stdout, ui.HeaderStyle.Render(fmt.Sprintf("%-34s %-14s %-10s %-12s %6s %6s", "COMPLIANCE ID", "FRAMEWORK", "VERSION", "PROVIDER", "REQS", "MANUAL")))
	for _, fi := range infos {
		fmt.Fprintf(stdout, "%-34s %-14s %-10s %-12s %6d %6d\n", fi.ID, fi.Framework, fi.Version, fi.Provider, fi.Requirements, fi.Manual)
	}
	return 0
}

func runRequirements(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("requirements", flag.ContinueOnError)
	complianceID := fs.String("compliance-id", "", "Framework to describe (required)")
	asJSON := fs.Bool("json", false, "Print JSON")
	cfg, logger, err := parseFlags(fs, args, stdout, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	if *complianceID != "" && len(cfg.Frameworks) == 0 {
		cfg.Frameworks = []string{*complianceID}
	}
	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		return fail(stderr, err)
	}

	attrs, err := overview.Attributes(catalog, *complianceID)
	if err != nil {
		return fail(stderr, err)
	}
	if *asJSON {
		return printJSON(stdout, stderr, attrs)
	}
	for _, a := range attrs {
		kind := "automated"
		if len(a.Checks) == 0 {
			kind = "manual"
		}
		fmt.Fprintf(stdout, "%s %s\n", ui.SectionStyle.Render(a.ID), ui.MutedStyle.Render("("+kind+")"))
		if a.Description != "" {
			fmt.Fprintf(stdout, "  %s\n", a.Description)
		}
		for _, c := range a.Checks {
			fmt.Fprintf(stdout, "  - %s\n", c)
		}
		for _, attr := range a.Attributes {
			for _, f := range attr.Fields() {
				fmt.Fprintf(stdout, "  %s %s\n", ui.StatLabelStyle.Render(f.Name+":"), f.Value)
			}
		}
	}
	return 0
}

func printJSON(stdout, stderr io.Writer, v any) int {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}
