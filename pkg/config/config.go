package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/complyscope/complyscope/pkg/defaults"
	"github.com/complyscope/complyscope/pkg/finding"
)

// Config holds all CLI configuration options. Values come from defaults,
// then the YAML config file, then flags.
type Config struct {
	// Inputs
	Findings      string   `yaml:"findings"`       // JSON array or JSON Lines file, "-" for stdin
	Mutelist      string   `yaml:"mutelist"`       // Mutelist document (missing file = nothing muted)
	ComplianceDir string   `yaml:"compliance_dir"` // Directory of framework documents
	Frameworks    []string `yaml:"frameworks"`     // Compliance ids to load (empty = all)
	Provider      string   `yaml:"provider"`       // Only load frameworks for this provider

	// Scan context
	ScanID     string   `yaml:"scan_id"`     // Generated when empty
	AccountUID string   `yaml:"account_uid"` // Account context (empty = per finding)
	Statuses   []string `yaml:"statuses"`    // Keep only these statuses (empty = all)
	Strict     bool     `yaml:"strict"`      // Fail on an invalid mutelist instead of disabling it

	// Output
	OutputDir       string `yaml:"output_dir"`
	SummaryTemplate string `yaml:"summary_template"` // text/template file for the console summary
	Timestamp       bool   `yaml:"timestamp"`        // Stamp export rows with the assessment date
	Verbose         bool   `yaml:"verbose"`
	NoColor         bool   `yaml:"no_color"`
	Silent          bool   `yaml:"silent"`

	// Telemetry
	MetricsAddr  string `yaml:"metrics_addr"`  // Serve Prometheus metrics on this address
	OTLPEndpoint string `yaml:"otlp_endpoint"` // OTLP/gRPC collector (empty = tracing off)
	OTLPInsecure bool   `yaml:"otlp_insecure"`

	Concurrency int `yaml:"concurrency"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Mutelist:      defaults.MutelistFile,
		ComplianceDir: defaults.ComplianceDir,
		OutputDir:     defaults.OutputDir,
		Concurrency:   defaults.Concurrency,
	}
}

// Load decodes YAML from r over the defaults. Unknown keys are rejected.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the config file at path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.decodeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	defer f.Close()
	if err := c.decode(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// RegisterFlags binds the configuration to fs, using the current values
// as flag defaults.
func (c *Config) RegisterFlags(set *flag.FlagSet) {
	// === INPUT ===
	set.StringVar(&c.Findings, "findings", c.Findings, "Findings file (JSON array or JSON Lines, - for stdin)")
	set.StringVar(&c.Findings, "f", c.Findings, "Findings file (alias)")
	set.StringVar(&c.Mutelist, "mutelist", c.Mutelist, "Mutelist document (YAML or JSON)")
	set.StringVar(&c.Mutelist, "m", c.Mutelist, "Mutelist document (alias)")
	set.StringVar(&c.ComplianceDir, "compliance-dir", c.ComplianceDir, "Directory of compliance framework documents")
	set.Var(newListFlag(&c.Frameworks), "frameworks", "Compliance ids to load, comma-separated or repeated")
	set.StringVar(&c.Provider, "provider", c.Provider, "Only load frameworks for this provider")

	// === SCAN ===
	set.StringVar(&c.ScanID, "scan-id", c.ScanID, "Scan id (generated when empty)")
	set.StringVar(&c.AccountUID, "account", c.AccountUID, "Account context for mutelist evaluation")
	set.Var(newListFlag(&c.Statuses), "status", "Keep only findings with these statuses (PASS,FAIL,MANUAL)")
	set.BoolVar(&c.Strict, "strict", c.Strict, "Fail when the mutelist is invalid")
	set.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "Scans evaluated in parallel")
	set.IntVar(&c.Concurrency, "c", c.Concurrency, "Concurrency (alias)")

	// === OUTPUT ===
	set.StringVar(&c.OutputDir, "output-dir", c.OutputDir, "Directory for report files")
	set.StringVar(&c.OutputDir, "o", c.OutputDir, "Output directory (alias)")
	set.StringVar(&c.SummaryTemplate, "summary-template", c.SummaryTemplate, "text/template file for the console summary")
	set.BoolVar(&c.Timestamp, "timestamp", c.Timestamp, "Stamp export rows with the assessment date")
	set.BoolVar(&c.Verbose, "verbose", c.Verbose, "Debug logging")
	set.BoolVar(&c.Verbose, "v", c.Verbose, "Verbose (alias)")
	set.BoolVar(&c.NoColor, "no-color", c.NoColor, "Disable colored output")
	set.BoolVar(&c.Silent, "silent", c.Silent, "Suppress banner and console summary")
	set.BoolVar(&c.Silent, "s", c.Silent, "Silent (alias)")

	// === TELEMETRY ===
	set.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address")
	set.StringVar(&c.OTLPEndpoint, "otlp-endpoint", c.OTLPEndpoint, "OTLP/gRPC trace collector")
	set.BoolVar(&c.OTLPInsecure, "otlp-insecure", c.OTLPInsecure, "Disable TLS to the trace collector")
}

// Parse builds the configuration for one command: defaults, then the
// file named by -config (or defaults.ConfigFile when present), then the
// remaining flags in args.
func Parse(set *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()

	path, explicit := configPath(args)
	if path == "" {
		path = defaults.ConfigFile
	}
	if err := cfg.decodeFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	set.String("config", path, "Configuration file (YAML)")
	cfg.RegisterFlags(set)
	if err := set.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath finds -config before flag parsing so the file can seed the
// flag defaults.
func configPath(args []string) (string, bool) {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v, true
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

// Validate checks the values every command relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ComplianceDir) == "" {
		return fmt.Errorf("%w: compliance_dir", ErrMissingRequired)
	}
	if c.Concurrency < 1 || c.Concurrency > defaults.ConcurrencyMax {
		return fmt.Errorf("%w: concurrency must be between 1 and %d, got %d",
			ErrInvalidConfig, defaults.ConcurrencyMax, c.Concurrency)
	}
	if _, err := c.StatusFilter(); err != nil {
		return err
	}
	if c.OTLPInsecure && c.OTLPEndpoint == "" {
		return fmt.Errorf("%w: otlp_insecure requires otlp_endpoint", ErrInvalidConfig)
	}
	return nil
}

// RequireFindings reports a missing findings input.
func (c *Config) RequireFindings() error {
	if strings.TrimSpace(c.Findings) == "" {
		return fmt.Errorf("%w: findings (use -findings)", ErrMissingRequired)
	}
	return nil
}

// StatusFilter parses Statuses.
func (c *Config) StatusFilter() ([]finding.Status, error) {
	var out []finding.Status
	for _, v := range c.Statuses {
		s, err := finding.ParseStatus(v)
		if err != nil {
			return nil, fmt.Errorf("%w: status %q: %w", ErrInvalidConfig, v, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// listFlag is a repeated or comma-separated string flag. The first Set
// replaces any value seeded from the config file.
type listFlag struct {
	p   *[]string
	set bool
}

func newListFlag(p *[]string) *listFlag {
	return &listFlag{p: p}
}

func (l *listFlag) String() string {
	if l == nil || l.p == nil {
		return ""
	}
	return strings.Join(*l.p, ",")
}

func (l *listFlag) Set(value string) error {
	if !l.set {
		*l.p = nil
		l.set = true
	}
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l.p = append(*l.p, v)
		}
	}
	return nil
}
