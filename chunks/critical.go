package chunks

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Critical chunk types.
const (
	IHDR = "IHDR"
	PLTE = "PLTE"
	IDAT = "IDAT"
	IEND = "IEND"
)

const iHDRLength = 13

// Header is the IHDR chunk.
type Header struct {
	base
	Width             int
	Height            int
	BitDepth          int
	ColorType         int
	CompressionMethod int
	FilterMethod      int
	InterlaceMethod   int
}

func newHeader(id string, info *ImageInfo) Chunk {
	return &Header{base: base{id: id, info: info}}
}

// NewHeader builds the IHDR chunk describing info.
func NewHeader(info *ImageInfo) *Header {
	h := &Header{
		base:      base{id: IHDR, info: info},
		Width:     info.Cols,
		Height:    info.Rows,
		BitDepth:  info.BitDepth,
		ColorType: info.ColorType,
	}
	if info.Interlaced {
		h.InterlaceMethod = itAdam7
	}
	return h
}

func (h *Header) OrderingConstraint() OrderingConstraint { return MustBeFirst }

// ParseFromRaw decodes and validates the IHDR fields.
// http://www.libpng.org/pub/png/spec/1.2/PNG-Chunks.html#C.IHDR
func (h *Header) ParseFromRaw(c *RawChunk) error {
	if c.Len != iHDRLength {
		return errors.Errorf("invalid IHDR length: got %d - expected %d", c.Len, iHDRLength)
	}
	tmp := c.Data

	width := binary.BigEndian.Uint32(tmp[0:4])
	if width == 0 || width > MaxLength {
		return errors.Errorf("invalid width in IHDR - got %x", tmp[0:4])
	}
	height := binary.BigEndian.Uint32(tmp[4:8])
	if height == 0 || height > MaxLength {
		return errors.Errorf("invalid height in IHDR - got %x", tmp[4:8])
	}
	depth, colorType := int(tmp[8]), int(tmp[9])
	if !validDepth(colorType, depth) {
		return errors.Errorf("bit depth %d, color type %d", depth, colorType)
	}
	// Only compression method 0 is supported
	if tmp[10] != 0 {
		return errors.Errorf("invalid compression method - expected 0 - got %x", tmp[10])
	}
	// Only filter method 0 is supported
	if tmp[11] != 0 {
		return errors.Errorf("invalid filter method - expected 0 - got %x", tmp[11])
	}
	// Only interlace methods 0 and 1 are supported
	if tmp[12] != itNone && tmp[12] != itAdam7 {
		return errors.Errorf("invalid interlace method - expected 0 or 1 - got %x", tmp[12])
	}

	h.Width, h.Height = int(width), int(height)
	h.BitDepth, h.ColorType = depth, colorType
	h.CompressionMethod = int(tmp[10])
	h.FilterMethod = int(tmp[11])
	h.InterlaceMethod = int(tmp[12])
	h.raw = c
	return nil
}

func validDepth(colorType, depth int) bool {
	switch colorType {
	case ctGrayscale:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case ctPaletted:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8
	case ctTrueColor, ctGrayscaleAlpha, ctTrueColorAlpha:
		return depth == 8 || depth == 16
	}
	return false
}

func (h *Header) ToRawChunk() (*RawChunk, error) {
	if !validDepth(h.ColorType, h.BitDepth) {
		return nil, errors.Errorf("bit depth %d, color type %d", h.BitDepth, h.ColorType)
	}
	data := make([]byte, iHDRLength)
	binary.BigEndian.PutUint32(data[0:4], uint32(h.Width))
	binary.BigEndian.PutUint32(data[4:8], uint32(h.Height))
	data[8] = byte(h.BitDepth)
	data[9] = byte(h.ColorType)
	data[10] = byte(h.CompressionMethod)
	data[11] = byte(h.FilterMethod)
	data[12] = byte(h.InterlaceMethod)
	return h.newRaw(data), nil
}

func (h *Header) CloneForOutput(info *ImageInfo) Chunk {
	other := *h
	other.info, other.raw = info, nil
	return &other
}

// ImageInfo returns the image description carried by the header.
func (h *Header) ImageInfo() *ImageInfo {
	return &ImageInfo{
		Cols:       h.Width,
		Rows:       h.Height,
		BitDepth:   h.BitDepth,
		ColorType:  h.ColorType,
		Interlaced: h.InterlaceMethod == itAdam7,
	}
}

// Palette is the PLTE chunk.
type Palette struct {
	base
	Entries [][3]byte
}

func newPalette(id string, info *ImageInfo) Chunk {
	return &Palette{base: base{id: id, info: info}}
}

func (p *Palette) OrderingConstraint() OrderingConstraint { return BeforeImageData }

func (p *Palette) ParseFromRaw(c *RawChunk) error {
	if c.Len%3 != 0 || c.Len == 0 || c.Len > 256*3 {
		return errors.Errorf("bad PLTE length %d", c.Len)
	}
	p.Entries = make([][3]byte, c.Len/3)
	for i := range p.Entries {
		copy(p.Entries[i][:], c.Data[3*i:])
	}
	p.raw = c
	return nil
}

func (p *Palette) ToRawChunk() (*RawChunk, error) {
	if len(p.Entries) == 0 || len(p.Entries) > 256 {
		return nil, errors.Errorf("bad palette size %d", len(p.Entries))
	}
	data := make([]byte, 0, 3*len(p.Entries))
	for _, e := range p.Entries {
		data = append(data, e[:]...)
	}
	return p.newRaw(data), nil
}

func (p *Palette) CloneForOutput(info *ImageInfo) Chunk {
	other := &Palette{base: base{id: p.id, info: info}}
	other.Entries = append([][3]byte(nil), p.Entries...)
	return other
}

// ImageData is an IDAT chunk outside of a reader's data group: the
// payload is a slice of a compressed stream and is kept as is.
type ImageData struct {
	base
}

func newImageData(id string, info *ImageInfo) Chunk {
	return &ImageData{base: base{id: id, info: info}}
}

func (d *ImageData) AllowsMultiple() bool { return true }

func (d *ImageData) ParseFromRaw(c *RawChunk) error {
	d.raw = c
	return nil
}

func (d *ImageData) ToRawChunk() (*RawChunk, error) {
	if d.raw == nil {
		return nil, errors.New("IDAT chunk has no data")
	}
	return d.raw, nil
}

func (d *ImageData) CloneForOutput(info *ImageInfo) Chunk {
	return &ImageData{base: base{id: d.id, info: info, raw: d.raw}}
}

// End is the IEND chunk.
type End struct {
	base
}

func newEnd(id string, info *ImageInfo) Chunk {
	return &End{base: base{id: id, info: info}}
}

func (e *End) OrderingConstraint() OrderingConstraint { return MustBeLast }

func (e *End) ParseFromRaw(c *RawChunk) error {
	if c.Len != 0 {
		return errors.Errorf("bad IEND length %d", c.Len)
	}
	e.raw = c
	return nil
}

func (e *End) ToRawChunk() (*RawChunk, error) {
	return e.newRaw([]byte{}), nil
}

func (e *End) CloneForOutput(info *ImageInfo) Chunk {
	return &End{base: base{id: e.id, info: info}}
}
