package pipeline

import (
	"io"
	"sync"

	"github.com/complyscope/complyscope/pkg/finding"
	"github.com/complyscope/complyscope/pkg/jsonutil"
)

// Source pushes the findings of one scan to fn in order. It stops at the
// first error returned by fn and returns it.
type Source func(fn func(finding.Finding) error) error

// SliceSource yields fs in order.
func SliceSource(fs []finding.Finding) Source {
	return func(fn func(finding.Finding) error) error {
		for _, f := range fs {
			if err := fn(f); err != nil {
				return err
			}
		}
		return nil
	}
}

// ReaderSource decodes findings from r, either a JSON array or JSON Lines.
func ReaderSource(r io.Reader) Source {
	return func(fn func(finding.Finding) error) error {
		return jsonutil.ReadStream(r, fn)
	}
}

// Sink receives annotated findings as soon as they are evaluated.
type Sink interface {
	Write(f finding.Finding) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f finding.Finding) error

func (s SinkFunc) Write(f finding.Finding) error { return s(f) }

// Discard drops every finding.
var Discard Sink = SinkFunc(func(finding.Finding) error { return nil })

// JSONLSink writes one JSON object per line. It is safe for concurrent use.
type JSONLSink struct {
	mu  sync.Mutex
	enc *jsonutil.Encoder
}

// NewJSONLSink returns a sink encoding findings to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: jsonutil.NewStreamEncoder(w)}
}

func (s *JSONLSink) Write(f finding.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(f)
}

// Collector keeps annotated findings in memory.
type Collector struct {
	mu       sync.Mutex
	findings []finding.Finding
}

func (c *Collector) Write(f finding.Finding) error {
	c.mu.Lock()
	c.findings = append(c.findings, f)
	c.mu.Unlock()
	return nil
}

// Findings returns a copy of the collected findings.
func (c *Collector) Findings() []finding.Finding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]finding.Finding(nil), c.findings...)
}
