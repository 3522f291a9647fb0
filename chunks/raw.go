package chunks

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// MaxLength is the largest payload length a chunk may declare.
const MaxLength = 0x7fffffff

// Each chunk starts with a uint32 length (big endian), then 4 byte name,
// then data and finally the CRC32 of the name and the data.
type RawChunk struct {
	Len    int    // chunk data length
	ID     string // chunk type
	Data   []byte // chunk data, nil while not allocated
	CRC    uint32 // CRC32 as found in (or written to) the stream
	Offset int64  // position of the length field in the stream, -1 if unknown
}

// NewRawChunk allocates a chunk with room for length bytes of payload.
func NewRawChunk(length int, id string, alloc bool) *RawChunk {
	c := &RawChunk{
		Len:    length,
		ID:     id,
		Offset: -1,
	}
	if alloc {
		c.Data = make([]byte, length)
	}
	return c
}

// ComputeCRC returns the CRC32 of the chunk type and data.
func (c *RawChunk) ComputeCRC() uint32 {
	crc := crc32.NewIEEE()
	crc.Write([]byte(c.ID))
	data := c.Data
	if c.Len >= 0 && c.Len < len(data) {
		data = data[:c.Len]
	}
	crc.Write(data)
	return crc.Sum32()
}

// CheckCRC compares the stored CRC against the computed one.
func (c *RawChunk) CheckCRC() error {
	if sum32 := c.ComputeCRC(); sum32 != c.CRC {
		return errors.Errorf("invalid checksum CType:%v, got %08x - expected %08x", c.ID, c.CRC, sum32)
	}
	return nil
}

// WriteTo serializes the chunk, recomputing its CRC.
func (c *RawChunk) WriteTo(w io.Writer) (int64, error) {
	if len(c.Data) < c.Len {
		return 0, errors.Errorf("chunk %v: data has %d bytes, declared %d", c.ID, len(c.Data), c.Len)
	}
	if !ValidID(c.ID) {
		return 0, errors.Errorf("invalid chunk id %q", c.ID)
	}
	c.CRC = c.ComputeCRC()

	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(c.Len))
	copy(buf[4:], c.ID)
	var written int64
	n, err := w.Write(buf[:])
	written += int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(c.Data[:c.Len])
	written += int64(n)
	if err != nil {
		return written, err
	}
	binary.BigEndian.PutUint32(buf[:4], c.CRC)
	n, err = w.Write(buf[:4])
	written += int64(n)
	return written, err
}

// ValidID reports whether id is made of 4 ASCII letters.
func ValidID(id string) bool {
	if len(id) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		b := id[i]
		if !(b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z') {
			return false
		}
	}
	return true
}

// IsCritical is true when the ancillary bit (first letter) is clear.
func IsCritical(id string) bool {
	return id[0]&0x20 == 0
}

// IsPublic is true when the private bit (second letter) is clear.
func IsPublic(id string) bool {
	return id[1]&0x20 == 0
}

// IsSafeToCopy is true when the safe-to-copy bit (fourth letter) is set.
func IsSafeToCopy(id string) bool {
	return id[3]&0x20 != 0
}
