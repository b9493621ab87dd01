package main

import (
	"flag"
	"io"
	"log/slog"

	"github.com/complyscope/complyscope/pkg/compliance"
	"github.com/complyscope/complyscope/pkg/config"
	"github.com/complyscope/complyscope/pkg/ui"
)

// parseFlags builds the configuration for one command. Command specific
// flags must already be registered on fs.
func parseFlags(fs *flag.FlagSet, args []string, stdout, stderr io.Writer) (*config.Config, *slog.Logger, error) {
	fs.SetOutput(stderr)
	cfg, err := config.Parse(fs, args)
	if err != nil {
		return nil, nil, err
	}
	ui.ConfigureColor(stdout, cfg.NoColor)
	ui.SetSilent(cfg.Silent)
	return cfg, newLogger(stderr, cfg.Verbose), nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func loadCatalog(cfg *config.Config, logger *slog.Logger) (*compliance.Catalog, error) {
	return compliance.LoadDir(cfg.ComplianceDir, compliance.DirOptions{
		Frameworks: cfg.Frameworks,
		Provider:   cfg.Provider,
		Logger:     logger,
	})
}
