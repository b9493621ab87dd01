package iohelper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyscope/complyscope/pkg/testutil"
)

func TestReadLimited_NilReader(t *testing.T) {
	data, err := ReadLimited(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestReadLimited_UnderAndAtLimit(t *testing.T) {
	data, err := ReadLimited(strings.NewReader("small"), 1024)
	require.NoError(t, err)
	assert.Equal(t, "small", string(data))

	data, err = ReadLimited(strings.NewReader(strings.Repeat("x", 100)), 100)
	require.NoError(t, err)
	assert.Len(t, data, 100)
}

func TestReadLimited_OverLimit(t *testing.T) {
	_, err := ReadLimited(strings.NewReader(strings.Repeat("x", 101)), 100)
	assert.ErrorIs(t, err, ErrTooLarge)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, testutil.ErrFault }

func TestReadLimited_ReadError(t *testing.T) {
	_, err := ReadLimited(failingReader{}, 10)
	assert.ErrorIs(t, err, testutil.ErrFault)
}

func TestReadDocument(t *testing.T) {
	data, err := ReadDocument(strings.NewReader("Accounts: {}"))
	require.NoError(t, err)
	assert.Equal(t, "Accounts: {}", string(data))
}
