package jsonutil

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestUnmarshal(t *testing.T) {
	var got item
	require.NoError(t, Unmarshal([]byte(`{"id":"a","count":2,"extra":true}`), &got))
	assert.Equal(t, item{ID: "a", Count: 2}, got)

	assert.Error(t, Unmarshal([]byte(`{invalid}`), &got))
}

func TestUnmarshalStrict(t *testing.T) {
	var got item
	require.NoError(t, UnmarshalStrict([]byte(`{"id":"a","count":2}`), &got))
	assert.Equal(t, "a", got.ID)

	err := UnmarshalStrict([]byte(`{"id":"a","extra":true}`), &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra")
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(item{ID: "a"}, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"id\": \"a\"")
}

func TestValidAndCheck(t *testing.T) {
	assert.True(t, Valid([]byte(`{"a":1}`)))
	assert.False(t, Valid([]byte(`{"a":}`)))

	assert.NoError(t, Check([]byte(`{"a":[1,2]}`)))
	assert.Error(t, Check([]byte(`{"a":1`)))
	assert.Error(t, Check([]byte(`{"a":1,"a":2}`)), "duplicate names are rejected")
}

func TestEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	require.NoError(t, enc.Encode(item{ID: "a", Count: 1}))
	require.NoError(t, enc.Encode(item{ID: "b", Count: 2}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"id":"a","count":1}`, lines[0])
}

func TestReadStream(t *testing.T) {
	collect := func(input string) ([]item, error) {
		var out []item
		err := ReadStream(strings.NewReader(input), func(it item) error {
			out = append(out, it)
			return nil
		})
		return out, err
	}

	t.Run("array", func(t *testing.T) {
		got, err := collect(`[{"id":"a"},{"id":"b"}]`)
		require.NoError(t, err)
		assert.Equal(t, []item{{ID: "a"}, {ID: "b"}}, got)
	})

	t.Run("json lines", func(t *testing.T) {
		got, err := collect("{\"id\":\"a\"}\n{\"id\":\"b\"}\n")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := collect("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty array", func(t *testing.T) {
		got, err := collect("[]")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("malformed element", func(t *testing.T) {
		_, err := collect(`[{"id":"a"},{"id":]`)
		assert.Error(t, err)
	})

	t.Run("callback error stops", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := ReadStream(strings.NewReader(`[{"id":"a"},{"id":"b"}]`), func(item) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}
