// Package chunks models PNG chunks: their wire form, the known variants,
// and the factory that maps a chunk type to its variant.
package chunks

// Chunk is one variant of the chunk set. Known critical and ancillary
// chunks interpret their payload; Unknown keeps it verbatim.
type Chunk interface {
	ID() string
	OrderingConstraint() OrderingConstraint
	// AllowsMultiple is false for chunks that may appear at most once.
	AllowsMultiple() bool
	// ParseFromRaw populates the interpreted form from c.
	ParseFromRaw(c *RawChunk) error
	// ToRawChunk produces the wire form of the chunk.
	ToRawChunk() (*RawChunk, error)
	// CloneForOutput returns an independent chunk for another image.
	CloneForOutput(info *ImageInfo) Chunk
	// Raw is the chunk as read, nil for chunks not read from a stream.
	Raw() *RawChunk
}

// Constructor builds an empty variant for an image.
type Constructor func(id string, info *ImageInfo) Chunk

// base carries what every variant shares.
type base struct {
	id   string
	info *ImageInfo
	raw  *RawChunk
}

func (b *base) ID() string { return b.id }

func (b *base) Raw() *RawChunk { return b.raw }

func (b *base) AllowsMultiple() bool { return false }

func (b *base) OrderingConstraint() OrderingConstraint { return Unconstrained }

// newRaw allocates the wire form of a known chunk from its payload.
func (b *base) newRaw(data []byte) *RawChunk {
	c := NewRawChunk(len(data), b.id, false)
	c.Data = data
	c.CRC = c.ComputeCRC()
	return c
}
