package mutelist

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/complyscope/complyscope/pkg/iohelper"
)

// FormatFor picks the syntax from a file name. Anything that is not
// .json is read as YAML, which also accepts JSON documents.
func FormatFor(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads a document from r; name selects the format and is used as
// the document source.
func Load(r io.Reader, name string, opts ...LoadOption) (*Document, error) {
	data, err := iohelper.ReadDocument(r)
	if err != nil {
		return nil, fmt.Errorf("mutelist: read %s: %w", name, err)
	}
	opts = append([]LoadOption{WithSource(name)}, opts...)
	return Parse(data, FormatFor(name), opts...)
}

// LoadFile reads a document from path. A file that does not exist yields
// an empty mutelist so a missing optional file never aborts a scan.
func LoadFile(path string, opts ...LoadOption) (*Document, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("mutelist: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, path, opts...)
}
