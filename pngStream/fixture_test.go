package pngStream

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"

	"github.com/topobyte/png4j/chunks"
)

// pngFile assembles a PNG stream chunk by chunk and remembers where each
// chunk starts.
type pngFile struct {
	t       testing.TB
	buf     bytes.Buffer
	offsets []int64
}

func newPNG(t testing.TB) *pngFile {
	p := &pngFile{t: t}
	p.buf.WriteString(pngHeader)
	return p
}

func (p *pngFile) chunk(id string, data []byte) *pngFile {
	c := chunks.NewRawChunk(len(data), id, false)
	c.Data = data
	p.offsets = append(p.offsets, int64(p.buf.Len()))
	_, err := c.WriteTo(&p.buf)
	require.NoError(p.t, err)
	return p
}

func (p *pngFile) variant(c chunks.Chunk) *pngFile {
	raw, err := c.ToRawChunk()
	require.NoError(p.t, err)
	return p.chunk(raw.ID, raw.Data)
}

func (p *pngFile) header(cols, rows, depth, colorType int) *pngFile {
	return p.variant(chunks.NewHeader(&chunks.ImageInfo{Cols: cols, Rows: rows, BitDepth: depth, ColorType: colorType}))
}

// data writes compressed as IDAT chunks of at most size bytes.
func (p *pngFile) data(compressed []byte, size int) *pngFile {
	for len(compressed) > 0 {
		n := min(size, len(compressed))
		p.chunk(chunks.IDAT, compressed[:n])
		compressed = compressed[n:]
	}
	return p
}

func (p *pngFile) end() *pngFile {
	return p.chunk(chunks.IEND, nil)
}

func (p *pngFile) bytes() []byte {
	return p.buf.Bytes()
}

func deflate(t testing.TB, raw []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// smallRaw is the inflated image data of smallPNG: 3 rows of a 3x3 8 bit
// grayscale image, each starting with its filter type.
var smallRaw = []byte{1, 0, 1, 1, 3, 112, 136, 8, 1, 255, 239, 238}

// smallPNG is a 3x3 grayscale image with a text chunk and its compressed
// data split over 3 IDAT chunks: 6 chunks in total.
func smallPNG(t testing.TB) []byte {
	z := deflate(t, smallRaw)
	part := (len(z) + 2) / 3
	return newPNG(t).
		header(3, 3, 8, 0).
		variant(chunks.NewText("Comment", "test image")).
		data(z, part).
		end().
		bytes()
}

// noisyRaw returns rows*(cols+1) bytes looking like filtered scanlines.
func noisyRaw(cols, rows int) []byte {
	rnd := rand.New(rand.NewSource(int64(cols*1000 + rows)))
	raw := make([]byte, 0, rows*(cols+1))
	for y := 0; y < rows; y++ {
		raw = append(raw, byte(y%5))
		for x := 0; x < cols; x++ {
			if rnd.Intn(3) == 0 {
				raw = append(raw, byte(rnd.Intn(256)))
			} else {
				raw = append(raw, byte(x+y))
			}
		}
	}
	return raw
}

// largePNG is a cols x rows grayscale image with ancillary chunks on
// both sides of a data group of 64 byte IDAT chunks.
func largePNG(t testing.TB, raw []byte, cols, rows int) []byte {
	return newPNG(t).
		header(cols, rows, 8, 0).
		chunk(chunks.GAMA, []byte{0, 0, 0xb1, 0x8f}).
		chunk(chunks.PHYS, []byte{0, 0, 0x0b, 0x13, 0, 0, 0x0b, 0x13, 1}).
		variant(chunks.NewText("Software", "png4j")).
		data(deflate(t, raw), 64).
		chunk(chunks.TIME, []byte{0x07, 0xe5, 3, 14, 15, 9, 26}).
		chunk("prVt", []byte("private data")).
		end().
		bytes()
}
