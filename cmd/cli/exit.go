package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/complyscope/complyscope/pkg/compliance"
	"github.com/complyscope/complyscope/pkg/config"
	"github.com/complyscope/complyscope/pkg/defaults"
	"github.com/complyscope/complyscope/pkg/mutelist"
	"github.com/complyscope/complyscope/pkg/overview"
	"github.com/complyscope/complyscope/pkg/pipeline"
	"github.com/complyscope/complyscope/pkg/ui"
)

// exitCode maps an error to the documented exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return defaults.ExitSuccess
	case errors.Is(err, flag.ErrHelp):
		return defaults.ExitSuccess
	case errors.Is(err, mutelist.ErrInvalidDocument),
		errors.Is(err, compliance.ErrInvalidFramework),
		errors.Is(err, compliance.ErrDuplicateFramework):
		return defaults.ExitInvalidDocument
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrMissingRequired),
		errors.Is(err, overview.ErrMissingFilter),
		errors.Is(err, compliance.ErrUnknownFramework),
		errors.Is(err, pipeline.ErrMissingScanID):
		return defaults.ExitUserError
	default:
		return defaults.ExitInternalError
	}
}

// fail prints err and returns its exit code.
func fail(w io.Writer, err error) int {
	code := exitCode(err)
	if code == defaults.ExitSuccess {
		return code
	}
	fmt.Fprintln(w, ui.FailStyle.Render("error:"), err)
	return code
}
