package chunks

import "fmt"

// Color type, as per the PNG spec.
const (
	ctGrayscale      = 0
	ctTrueColor      = 2
	ctPaletted       = 3
	ctGrayscaleAlpha = 4
	ctTrueColorAlpha = 6
)

// Interlace type.
const (
	itNone  = 0
	itAdam7 = 1
)

// ImageInfo is the image header as seen by chunk variants. It is the
// context a chunk is constructed or cloned for.
type ImageInfo struct {
	Cols       int
	Rows       int
	BitDepth   int
	ColorType  int
	Interlaced bool
}

// Channels returns the number of samples per pixel.
func (i *ImageInfo) Channels() int {
	switch i.ColorType {
	case ctTrueColor:
		return 3
	case ctGrayscaleAlpha:
		return 2
	case ctTrueColorAlpha:
		return 4
	}
	return 1
}

// BitsPerPixel is the number of bits one pixel takes in a scanline.
func (i *ImageInfo) BitsPerPixel() int {
	return i.Channels() * i.BitDepth
}

// BytesPerRow is the length of a non interlaced scanline, without the
// filter type byte.
func (i *ImageInfo) BytesPerRow() int {
	return (i.BitsPerPixel()*i.Cols + 7) / 8
}

// Indexed reports whether samples are palette indexes.
func (i *ImageInfo) Indexed() bool {
	return i.ColorType == ctPaletted
}

func (i *ImageInfo) String() string {
	return fmt.Sprintf("ImageInfo [cols=%d, rows=%d, bitDepth=%d, colorType=%d, interlaced=%v]",
		i.Cols, i.Rows, i.BitDepth, i.ColorType, i.Interlaced)
}
