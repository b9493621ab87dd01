// Command complyscope applies a mutelist to scan findings and rolls them
// up into compliance framework overviews.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/complyscope/complyscope/pkg/defaults"
	"github.com/complyscope/complyscope/pkg/ui"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return defaults.ExitUserError
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "evaluate", "eval", "run":
		return runEvaluate(ctx, rest, stdin, stdout, stderr)
	case "validate":
		return runValidate(rest, stdout, stderr)
	case "frameworks", "list":
		return runFrameworks(rest, stdout, stderr)
	case "requirements", "reqs":
		return runRequirements(rest, stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return defaults.ExitSuccess
	case "-v", "--version", "version":
		fmt.Fprintln(stdout, ui.VersionString())
		return defaults.ExitSuccess
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		printUsage(stderr)
		return defaults.ExitUserError
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `%s %s

Usage:
  %[1]s <command> [flags]

Commands:
  evaluate      Apply the mutelist to findings and aggregate compliance overviews
  validate      Check a mutelist and the compliance framework documents
  frameworks    List loaded compliance frameworks
  requirements  Show requirement attributes of one framework (-compliance-id)
  version       Print the version
  help          Show this help

Examples:
  %[1]s evaluate -f findings.jsonl -m mutelist.yaml -compliance-dir compliance -o output
  %[1]s evaluate -status FAIL -frameworks cis_2.0_aws scan-a.json scan-b.json
  %[1]s validate -m mutelist.yaml
  %[1]s requirements -compliance-id cis_2.0_aws -json

Flags shared by every command can be set in %[3]s.
Run '%[1]s <command> -h' for command flags.
`, defaults.ToolName, ui.Version, defaults.ConfigFile)
}
