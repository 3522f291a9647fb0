package pngStream

import (
	"io"
	"log"

	"github.com/topobyte/png4j/chunks"
)

// Options configures a Reader. The zero value reads a regular PNG stream
// in poll mode with rows of 1+BytesPerRow bytes.
type Options struct {
	// SkipCRC disables checksum verification.
	SkipCRC bool
	// SkipSignature reads a chunk stream that has no PNG signature.
	SkipSignature bool
	// AllowMissingData accepts a stream whose terminal chunk comes before
	// any image data.
	AllowMissingData bool

	// IsDataKind tells which chunk types form the deflated group.
	// Defaults to IDAT.
	IsDataKind func(id string) bool
	// NewDataSet creates the set for the group when its first chunk is
	// seen. info is nil when no IHDR was read. Defaults to a set built
	// from RowLen, OnRow and Decompressor.
	NewDataSet func(id string, info *chunks.ImageInfo) (*DeflatedSet, error)
	// RowLen is the length of the first row. 0 means 1+BytesPerRow of the
	// image header.
	RowLen int
	// OnRow selects callback mode. nil means poll mode.
	OnRow RowCallback
	// Decompressor defaults to Zlib.
	Decompressor Decompressor

	// Factory builds chunk variants. Defaults to chunks.NewFactory().
	Factory *chunks.Factory
	// OnChunk is called for every ordinary chunk once read and parsed.
	OnChunk func(c chunks.Chunk)

	// SkipChunkIDs lists ancillary chunk types read but not kept.
	SkipChunkIDs []string
	// SkipChunkMaxSize skips ancillary chunks longer than this (0 = none).
	SkipChunkMaxSize int
	// MaxTotalBytes fails the read past this many bytes (0 = no limit).
	MaxTotalBytes int64

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.IsDataKind == nil {
		o.IsDataKind = func(id string) bool { return id == chunks.IDAT }
	}
	if o.Factory == nil {
		o.Factory = chunks.NewFactory()
	}
	if o.Decompressor == nil {
		o.Decompressor = Zlib
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
}

func (o *Options) skipChunk(id string, length int) bool {
	if chunks.IsCritical(id) {
		return false
	}
	if o.SkipChunkMaxSize > 0 && length > o.SkipChunkMaxSize {
		return true
	}
	for _, s := range o.SkipChunkIDs {
		if s == id {
			return true
		}
	}
	return false
}
