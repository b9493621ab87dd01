package compliance

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/complyscope/complyscope/pkg/iohelper"
)

// LoadFile reads one framework document. The compliance id is the file
// name without extension.
func LoadFile(path string) (*Framework, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("compliance: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, path)
}

// Load reads one framework document from r. name selects the format and
// the compliance id.
func Load(r io.Reader, name string) (*Framework, error) {
	format := FormatFor(name)
	if format == "" {
		return nil, fmt.Errorf("compliance: %s: unsupported file type", name)
	}
	data, err := iohelper.ReadDocument(r)
	if err != nil {
		return nil, fmt.Errorf("compliance: read %s: %w", name, err)
	}
	return Parse(data, format, IDFor(name))
}

// DirOptions filters and instruments LoadDir.
type DirOptions struct {
	// Frameworks restricts loading to these compliance ids. Requesting an
	// id with no matching file is an error.
	Frameworks []string

	// Provider keeps only frameworks for this provider (case-insensitive).
	Provider string

	Logger *slog.Logger
}

// LoadDir loads every .json, .yaml and .yml document in dir into a
// catalog. Loading is all-or-nothing: any invalid document fails the load
// and every failure is reported.
func LoadDir(dir string, opts DirOptions) (*Catalog, error) {
	logger := orDefault(opts.Logger)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("compliance: read dir %s: %w", dir, err)
	}

	want := make(map[string]bool, len(opts.Frameworks))
	for _, id := range opts.Frameworks {
		want[id] = true
	}

	var (
		frameworks []*Framework
		errs       []error
		found      = make(map[string]bool)
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || FormatFor(name) == "" {
			continue
		}
		id := IDFor(name)
		if len(want) > 0 && !want[id] {
			continue
		}
		fw, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if opts.Provider != "" && !strings.EqualFold(fw.Provider, opts.Provider) {
			logger.Debug("framework skipped", slog.String("framework", fw.ID), slog.String("provider", fw.Provider))
			continue
		}
		found[id] = true
		frameworks = append(frameworks, fw)
		logger.Debug("framework loaded",
			slog.String("framework", fw.ID),
			slog.Int("requirements", len(fw.Requirements)),
			slog.Int("manual", fw.ManualCount()),
		)
	}

	var missing []string
	for id := range want {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 && len(errs) == 0 {
		sort.Strings(missing)
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownFramework, strings.Join(missing, ", ")))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewCatalog(frameworks...)
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
