// Package iohelper reads policy documents with a size limit.
package iohelper

import (
	"errors"
	"fmt"
	"io"
)

// MaxDocumentSize bounds a single mutelist or framework document (16MB).
const MaxDocumentSize int64 = 16 * 1024 * 1024

// ErrTooLarge is returned when a document exceeds its limit.
var ErrTooLarge = errors.New("iohelper: document too large")

// ReadLimited reads all of r, failing with ErrTooLarge instead of
// truncating when r holds more than maxSize bytes. A nil reader reads
// as empty.
func ReadLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxSize)
	}
	return data, nil
}

// ReadDocument reads r with MaxDocumentSize.
func ReadDocument(r io.Reader) ([]byte, error) {
	return ReadLimited(r, MaxDocumentSize)
}
