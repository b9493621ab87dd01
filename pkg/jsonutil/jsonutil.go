// Package jsonutil wraps github.com/go-json-experiment/json for the
// formats complyscope reads and writes: framework documents, findings
// streams and the evaluation report.
//
// Usage:
//
//	err := jsonutil.UnmarshalStrict(data, &fw) // unknown members rejected
//	err := jsonutil.ReadStream(r, func(f finding.Finding) error { ... })
package jsonutil

import (
	"errors"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Unmarshal parses the JSON-encoded data and stores the result in v.
// Unknown object members are ignored.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// UnmarshalStrict is Unmarshal with unknown object members rejected.
func UnmarshalStrict(data []byte, v any) error {
	return json.Unmarshal(data, v, json.RejectUnknownMembers(true))
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent returns the indented JSON encoding of v.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.Marshal(v, jsontext.WithIndentPrefix(prefix), jsontext.WithIndent(indent))
}

// Valid reports whether data is a single valid JSON value.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}

// Check is Valid with a descriptive error: syntax errors carry the byte
// offset, and duplicate object names are rejected.
func Check(data []byte) error {
	var v jsontext.Value
	return json.Unmarshal(data, &v)
}

// Encoder writes one JSON value per line.
type Encoder struct {
	w      io.Writer
	prefix string
	indent string
}

// NewStreamEncoder creates an encoder that writes to w.
func NewStreamEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the JSON encoding of v followed by a newline.
func (e *Encoder) Encode(v any) error {
	var err error
	if e.indent != "" {
		err = json.MarshalWrite(e.w, v, jsontext.WithIndentPrefix(e.prefix), jsontext.WithIndent(e.indent))
	} else {
		err = json.MarshalWrite(e.w, v)
	}
	if err != nil {
		return err
	}
	_, err = e.w.Write([]byte{'\n'})
	return err
}

// SetIndent formats each subsequent value with the given indentation.
func (e *Encoder) SetIndent(prefix, indent string) {
	e.prefix = prefix
	e.indent = indent
}

// ReadStream decodes either a top-level JSON array or a sequence of
// whitespace-separated values (JSON Lines) from r and calls fn for each
// element in order. Decoding stops at the first error from fn.
func ReadStream[T any](r io.Reader, fn func(T) error) error {
	dec := jsontext.NewDecoder(r)
	if dec.PeekKind() == '[' {
		if _, err := dec.ReadToken(); err != nil {
			return err
		}
		for dec.PeekKind() != ']' {
			var v T
			if err := json.UnmarshalDecode(dec, &v); err != nil {
				return err
			}
			if err := fn(v); err != nil {
				return err
			}
		}
		if _, err := dec.ReadToken(); err != nil {
			return err
		}
		return expectEOF(dec)
	}
	for {
		var v T
		err := json.UnmarshalDecode(dec, &v)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

func expectEOF(dec *jsontext.Decoder) error {
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("jsonutil: trailing data after array")
		}
		return err
	}
	return nil
}
