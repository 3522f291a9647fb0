package pngStream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRow(t *testing.T) {
	assert.Equal(t, "r=0[]", FormatRow(nil, 0))
	assert.Equal(t, "r=2[  7|]", FormatRow([]byte{7}, 2))
	assert.Equal(t, "r=11[  1|  0 255  16]", FormatRow([]byte{1, 0, 255, 16}, 11))
}

func TestRowReaderIgnoresCallback(t *testing.T) {
	called := false
	rr := NewRowReader(bytes.NewReader(smallPNG(t)), 5, Options{
		RowLen: 4,
		OnRow:  func(RowView) int { called = true; return 4 },
	})
	var got []byte
	for {
		row, _, err := rr.NextRow()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, row...)
		require.NoError(t, rr.Advance(4))
	}
	require.NoError(t, rr.Finish())
	assert.False(t, called)
	assert.Equal(t, smallRaw, got)
}

func TestRowReaderStopEarly(t *testing.T) {
	const cols, rows = 37, 23
	file := largePNG(t, noisyRaw(cols, rows), cols, rows)
	rr := NewRowReader(bytes.NewReader(file), 32, Options{})

	_, rown, err := rr.NextRow()
	require.NoError(t, err)
	assert.Zero(t, rown)
	require.NoError(t, rr.Advance(0))

	_, _, err = rr.NextRow()
	assert.Equal(t, io.EOF, err)
	require.NoError(t, rr.Finish())
	assert.True(t, rr.Reader().Done())
	assert.NotNil(t, rr.Reader().Chunks().First("prVt"))
}

func TestRowReaderClose(t *testing.T) {
	rr := NewRowReader(bytes.NewReader(smallPNG(t)), 5, Options{RowLen: 4})
	_, _, err := rr.NextRow()
	require.NoError(t, err)
	set, ok := rr.Reader().DeflatedSet()
	require.True(t, ok)

	require.NoError(t, rr.Close())
	assert.True(t, set.IsTerminated())
	_, ok = rr.Reader().DeflatedSet()
	assert.False(t, ok)
}
