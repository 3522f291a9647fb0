package chunks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	require := require.New(t)

	info := &ImageInfo{Cols: 37, Rows: 5, BitDepth: 4, ColorType: ctPaletted, Interlaced: true}
	raw, err := NewHeader(info).ToRawChunk()
	require.NoError(err)
	require.Equal(IHDR, raw.ID)
	require.Equal(iHDRLength, raw.Len)
	require.NoError(raw.CheckCRC())

	h := newHeader(IHDR, nil).(*Header)
	require.NoError(h.ParseFromRaw(raw))
	require.Equal(info, h.ImageInfo())
	require.Equal(19, h.ImageInfo().BytesPerRow())
	require.Equal(MustBeFirst, h.OrderingConstraint())
	require.False(h.AllowsMultiple())
}

func TestHeaderRejectsInvalidFields(t *testing.T) {
	valid := func() *RawChunk {
		raw, err := NewHeader(&ImageInfo{Cols: 2, Rows: 2, BitDepth: 8}).ToRawChunk()
		require.NoError(t, err)
		return raw
	}
	for name, mutate := range map[string]func(c *RawChunk){
		"short":       func(c *RawChunk) { c.Data = c.Data[:12]; c.Len = 12 },
		"zero width":  func(c *RawChunk) { copy(c.Data[0:4], []byte{0, 0, 0, 0}) },
		"depth":       func(c *RawChunk) { c.Data[8] = 3 },
		"rgb depth":   func(c *RawChunk) { c.Data[8], c.Data[9] = 4, ctTrueColor },
		"compression": func(c *RawChunk) { c.Data[10] = 1 },
		"filter":      func(c *RawChunk) { c.Data[11] = 1 },
		"interlace":   func(c *RawChunk) { c.Data[12] = 2 },
	} {
		raw := valid()
		mutate(raw)
		err := newHeader(IHDR, nil).ParseFromRaw(raw)
		assert.Error(t, err, name)
	}

	_, err := NewHeader(&ImageInfo{Cols: 2, Rows: 2, BitDepth: 16, ColorType: ctPaletted}).ToRawChunk()
	assert.Error(t, err)
}

func TestPalette(t *testing.T) {
	p := newPalette(PLTE, nil).(*Palette)
	raw := NewRawChunk(6, PLTE, false)
	raw.Data = []byte{1, 2, 3, 4, 5, 6}
	require.NoError(t, p.ParseFromRaw(raw))
	assert.Equal(t, [][3]byte{{1, 2, 3}, {4, 5, 6}}, p.Entries)
	assert.Equal(t, BeforeImageData, p.OrderingConstraint())

	out, err := p.CloneForOutput(nil).ToRawChunk()
	require.NoError(t, err)
	assert.Equal(t, raw.Data, out.Data)

	raw.Len, raw.Data = 5, raw.Data[:5]
	assert.Error(t, newPalette(PLTE, nil).ParseFromRaw(raw))
}

func TestTransparencyDependsOnColorType(t *testing.T) {
	raw := NewRawChunk(2, TRNS, false)
	raw.Data = []byte{0x01, 0x02}

	assert.Error(t, newTransparency(TRNS, nil).ParseFromRaw(raw))

	gray := newTransparency(TRNS, &ImageInfo{ColorType: ctGrayscale}).(*Transparency)
	require.NoError(t, gray.ParseFromRaw(raw))
	assert.EqualValues(t, 0x0102, gray.Gray)

	rgb := newTransparency(TRNS, &ImageInfo{ColorType: ctTrueColor})
	assert.Error(t, rgb.ParseFromRaw(raw))

	pal := newTransparency(TRNS, &ImageInfo{ColorType: ctPaletted}).(*Transparency)
	require.NoError(t, pal.ParseFromRaw(raw))
	out, err := pal.ToRawChunk()
	require.NoError(t, err)
	assert.Equal(t, raw.Data, out.Data)
}

func TestText(t *testing.T) {
	raw, err := NewText("Comment", "a\x00b").ToRawChunk()
	require.NoError(t, err)
	assert.Equal(t, "Comment\x00a\x00b", string(raw.Data))

	text := newText(TEXT, nil).(*Text)
	require.NoError(t, text.ParseFromRaw(raw))
	assert.Equal(t, "Comment", text.Keyword())
	assert.Equal(t, "a\x00b", text.Text())
	assert.True(t, text.AllowsMultiple())

	_, err = NewText("", "x").ToRawChunk()
	assert.Error(t, err)
}

func TestModTime(t *testing.T) {
	when := time.Date(2021, time.March, 14, 15, 9, 26, 0, time.UTC)
	raw, err := (&ModTime{base: base{id: TIME}, Time: when}).ToRawChunk()
	require.NoError(t, err)
	assert.Equal(t, 7, raw.Len)

	m := newModTime(TIME, nil).(*ModTime)
	require.NoError(t, m.ParseFromRaw(raw))
	assert.True(t, when.Equal(m.Time))
	out, err := m.ToRawChunk()
	require.NoError(t, err)
	assert.Equal(t, raw.Data, out.Data)
}

func TestModTimeRejectsInvalidDates(t *testing.T) {
	for name, data := range map[string][]byte{
		"month 0":     {0x07, 0xe5, 0, 14, 15, 9, 26},
		"month 13":    {0x07, 0xe5, 13, 14, 15, 9, 26},
		"day 0":       {0x07, 0xe5, 3, 0, 15, 9, 26},
		"february 30": {0x07, 0xe5, 2, 30, 15, 9, 26},
		"hour 24":     {0x07, 0xe5, 3, 14, 24, 9, 26},
		"minute 60":   {0x07, 0xe5, 3, 14, 15, 60, 26},
		"second 61":   {0x07, 0xe5, 3, 14, 15, 9, 61},
	} {
		raw := NewRawChunk(7, TIME, false)
		raw.Data = data
		m := newModTime(TIME, nil).(*ModTime)
		assert.Error(t, m.ParseFromRaw(raw), name)
		assert.Nil(t, m.Raw(), name)
	}
}

func TestOrderingConstraintAllows(t *testing.T) {
	start := Position{First: true}
	afterPalette := Position{SeenPalette: true}
	afterData := Position{SeenPalette: true, SeenData: true}

	for _, tc := range []struct {
		c                   OrderingConstraint
		start, plte, inData bool
	}{
		{Unconstrained, true, true, true},
		{MustBeFirst, true, false, false},
		{BeforePalette, true, false, false},
		{BeforeImageData, true, true, false},
		{AfterImageData, false, false, true},
	} {
		ok, _ := tc.c.Allows(start)
		assert.Equal(t, tc.start, ok, "%v at start", tc.c)
		ok, _ = tc.c.Allows(afterPalette)
		assert.Equal(t, tc.plte, ok, "%v after PLTE", tc.c)
		ok, where := tc.c.Allows(afterData)
		assert.Equal(t, tc.inData, ok, "%v after IDAT", tc.c)
		if !ok {
			assert.NotEmpty(t, where)
		}
	}
}

func TestListSummary(t *testing.T) {
	var l List
	f := NewFactory()
	for _, txt := range []string{"one", "two"} {
		raw, err := NewText("k", txt).ToRawChunk()
		require.NoError(t, err)
		c, err := f.FromRaw(raw, nil)
		require.NoError(t, err)
		l.Add(c)
	}
	l.Add(NewText("k", "not read"))

	assert.Equal(t, 3, l.Len())
	assert.Len(t, l.ByID(TEXT), 3)
	assert.Nil(t, l.First(IHDR))
	assert.Equal(t, "one", l.First(TEXT).(*Text).Text())

	s := l.Summary()
	assert.Contains(t, s, "Chunk # 1\n")
	assert.Contains(t, s, "Chunk length: 5\n")
	assert.Contains(t, s, "Chunk data (20 bytes): 6b 00 74 77 6f\n")
}
