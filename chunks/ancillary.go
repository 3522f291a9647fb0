package chunks

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

// Ancillary chunk types with a variant of their own.
const (
	GAMA = "gAMA"
	TRNS = "tRNS"
	PHYS = "pHYs"
	TEXT = "tEXt"
	TIME = "tIME"
)

// Gamma is the gAMA chunk; Gamma holds the value times 100000.
type Gamma struct {
	base
	Gamma uint32
}

func newGamma(id string, info *ImageInfo) Chunk {
	return &Gamma{base: base{id: id, info: info}}
}

func (g *Gamma) OrderingConstraint() OrderingConstraint { return BeforePalette }

func (g *Gamma) ParseFromRaw(c *RawChunk) error {
	if c.Len != 4 {
		return errors.Errorf("bad gAMA length %d", c.Len)
	}
	g.Gamma = binary.BigEndian.Uint32(c.Data)
	g.raw = c
	return nil
}

func (g *Gamma) ToRawChunk() (*RawChunk, error) {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, g.Gamma)
	return g.newRaw(data), nil
}

func (g *Gamma) CloneForOutput(info *ImageInfo) Chunk {
	return &Gamma{base: base{id: g.id, info: info}, Gamma: g.Gamma}
}

// Transparency is the tRNS chunk. Which field is set depends on the
// color type of the image it belongs to.
type Transparency struct {
	base
	Gray      uint16
	RGB       [3]uint16
	PaletteA  []byte
	colorType int
}

func newTransparency(id string, info *ImageInfo) Chunk {
	return &Transparency{base: base{id: id, info: info}}
}

func (t *Transparency) OrderingConstraint() OrderingConstraint { return BeforeImageData }

func (t *Transparency) ParseFromRaw(c *RawChunk) error {
	if t.info == nil {
		return errors.New("tRNS before IHDR")
	}
	t.colorType = t.info.ColorType
	switch t.colorType {
	case ctGrayscale:
		if c.Len != 2 {
			return errors.Errorf("bad tRNS length %d for grayscale", c.Len)
		}
		t.Gray = binary.BigEndian.Uint16(c.Data)
	case ctTrueColor:
		if c.Len != 6 {
			return errors.Errorf("bad tRNS length %d for truecolor", c.Len)
		}
		for i := range t.RGB {
			t.RGB[i] = binary.BigEndian.Uint16(c.Data[2*i:])
		}
	case ctPaletted:
		if c.Len > 256 {
			return errors.Errorf("bad tRNS length %d for palette", c.Len)
		}
		t.PaletteA = append([]byte(nil), c.Data...)
	default:
		return errors.Errorf("tRNS not allowed for color type %d", t.colorType)
	}
	t.raw = c
	return nil
}

func (t *Transparency) ToRawChunk() (*RawChunk, error) {
	var data []byte
	switch t.colorType {
	case ctGrayscale:
		data = binary.BigEndian.AppendUint16(nil, t.Gray)
	case ctTrueColor:
		for _, v := range t.RGB {
			data = binary.BigEndian.AppendUint16(data, v)
		}
	case ctPaletted:
		data = append([]byte{}, t.PaletteA...)
	default:
		return nil, errors.Errorf("tRNS not allowed for color type %d", t.colorType)
	}
	return t.newRaw(data), nil
}

func (t *Transparency) CloneForOutput(info *ImageInfo) Chunk {
	other := &Transparency{base: base{id: t.id, info: info}, Gray: t.Gray, RGB: t.RGB, colorType: t.colorType}
	other.PaletteA = append([]byte(nil), t.PaletteA...)
	return other
}

// PhysicalDims is the pHYs chunk.
type PhysicalDims struct {
	base
	PixelsPerUnitX uint32
	PixelsPerUnitY uint32
	Unit           byte // 1 is metre
}

func newPhysicalDims(id string, info *ImageInfo) Chunk {
	return &PhysicalDims{base: base{id: id, info: info}}
}

func (p *PhysicalDims) OrderingConstraint() OrderingConstraint { return BeforeImageData }

func (p *PhysicalDims) ParseFromRaw(c *RawChunk) error {
	if c.Len != 9 {
		return errors.Errorf("bad pHYs length %d", c.Len)
	}
	p.PixelsPerUnitX = binary.BigEndian.Uint32(c.Data[0:4])
	p.PixelsPerUnitY = binary.BigEndian.Uint32(c.Data[4:8])
	p.Unit = c.Data[8]
	p.raw = c
	return nil
}

func (p *PhysicalDims) ToRawChunk() (*RawChunk, error) {
	data := make([]byte, 9)
	binary.BigEndian.PutUint32(data[0:4], p.PixelsPerUnitX)
	binary.BigEndian.PutUint32(data[4:8], p.PixelsPerUnitY)
	data[8] = p.Unit
	return p.newRaw(data), nil
}

func (p *PhysicalDims) CloneForOutput(info *ImageInfo) Chunk {
	other := *p
	other.info, other.raw = info, nil
	return &other
}

// Text is a tEXt chunk. The payload is split into keyword and text the
// first time either is asked for.
type Text struct {
	base
	keyword string
	text    string
	parsed  bool
}

func newText(id string, info *ImageInfo) Chunk {
	return &Text{base: base{id: id, info: info}}
}

// NewText builds a tEXt chunk from its fields.
func NewText(keyword, text string) *Text {
	return &Text{base: base{id: TEXT}, keyword: keyword, text: text, parsed: true}
}

func (t *Text) AllowsMultiple() bool { return true }

func (t *Text) ParseFromRaw(c *RawChunk) error {
	t.raw = c
	t.parsed = false
	return nil
}

func (t *Text) parse() {
	if t.parsed || t.raw == nil {
		return
	}
	t.parsed = true
	k, v, found := bytes.Cut(t.raw.Data, []byte{0})
	t.keyword = string(k)
	if found {
		t.text = string(v)
	}
}

func (t *Text) Keyword() string {
	t.parse()
	return t.keyword
}

func (t *Text) Text() string {
	t.parse()
	return t.text
}

func (t *Text) ToRawChunk() (*RawChunk, error) {
	t.parse()
	if len(t.keyword) == 0 || len(t.keyword) > 79 {
		return nil, errors.Errorf("bad tEXt keyword length %d", len(t.keyword))
	}
	data := make([]byte, 0, len(t.keyword)+1+len(t.text))
	data = append(data, t.keyword...)
	data = append(data, 0)
	data = append(data, t.text...)
	return t.newRaw(data), nil
}

func (t *Text) CloneForOutput(info *ImageInfo) Chunk {
	t.parse()
	return &Text{base: base{id: t.id, info: info}, keyword: t.keyword, text: t.text, parsed: true}
}

// ModTime is the tIME chunk.
type ModTime struct {
	base
	Time time.Time
}

func newModTime(id string, info *ImageInfo) Chunk {
	return &ModTime{base: base{id: id, info: info}}
}

func (m *ModTime) ParseFromRaw(c *RawChunk) error {
	if c.Len != 7 {
		return errors.Errorf("bad tIME length %d", c.Len)
	}
	d := c.Data
	year := int(binary.BigEndian.Uint16(d[0:2]))
	t := time.Date(year, time.Month(d[2]), int(d[3]), int(d[4]), int(d[5]), int(d[6]), 0, time.UTC)
	// time.Date normalizes out of range fields
	if t.Year() != year || t.Month() != time.Month(d[2]) || t.Day() != int(d[3]) ||
		t.Hour() != int(d[4]) || t.Minute() != int(d[5]) || t.Second() != int(d[6]) {
		return errors.Errorf("invalid tIME date %d-%d-%d %d:%d:%d", year, d[2], d[3], d[4], d[5], d[6])
	}
	m.Time = t
	m.raw = c
	return nil
}

func (m *ModTime) ToRawChunk() (*RawChunk, error) {
	t := m.Time.UTC()
	data := binary.BigEndian.AppendUint16(make([]byte, 0, 7), uint16(t.Year()))
	data = append(data, byte(t.Month()), byte(t.Day()), byte(t.Hour()), byte(t.Minute()), byte(t.Second()))
	return m.newRaw(data), nil
}

func (m *ModTime) CloneForOutput(info *ImageInfo) Chunk {
	return &ModTime{base: base{id: m.id, info: info}, Time: m.Time}
}
