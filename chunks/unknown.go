package chunks

import "github.com/pkg/errors"

// Unknown is the placeholder for any chunk the factory has no
// constructor for, custom or not. It is never parsed.
type Unknown struct {
	base
}

// NewUnknown returns an empty unknown chunk for id.
func NewUnknown(id string, info *ImageInfo) Chunk {
	return &Unknown{base: base{id: id, info: info}}
}

func (u *Unknown) AllowsMultiple() bool { return true }

// ParseFromRaw keeps a reference to c, nothing else.
func (u *Unknown) ParseFromRaw(c *RawChunk) error {
	u.raw = c
	return nil
}

// ToRawChunk returns the stored chunk itself. Does not copy.
func (u *Unknown) ToRawChunk() (*RawChunk, error) {
	if u.raw == nil {
		return nil, errors.Errorf("chunk %v has no data", u.id)
	}
	return u.raw, nil
}

// Data returns the payload. Does not copy.
func (u *Unknown) Data() []byte {
	if u.raw == nil {
		return nil
	}
	return u.raw.Data
}

// SetData replaces the payload. Does not copy; chunks cloned from u share
// the same RawChunk and see the change.
func (u *Unknown) SetData(data []byte) {
	if u.raw == nil {
		u.raw = NewRawChunk(0, u.id, false)
	}
	u.raw.Data = data
	u.raw.Len = len(data)
}

// CloneForOutput shares the raw chunk with the clone.
func (u *Unknown) CloneForOutput(info *ImageInfo) Chunk {
	return &Unknown{base: base{id: u.id, info: info, raw: u.raw}}
}
