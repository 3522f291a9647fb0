// Package pngStream reads PNG chunk streams incrementally: bytes are
// pushed in arbitrary pieces, ordinary chunks come out as chunk variants
// and the IDAT group is inflated into rows.
package pngStream

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"

	"github.com/topobyte/png4j/chunks"
)

// 89 50 4E 47 0D 0A 1A 0A
const pngHeader = "\x89PNG\r\n\x1a\n"

// Decoding stage.
type readState int

const (
	awaitingSignature readState = iota
	awaitingChunkHeader
	awaitingChunkPayload
	awaitingChecksum
	readDone
)

type groupPhase int

const (
	groupNone groupPhase = iota
	groupActive
	groupEnded
)

// dataGroup is the deflated chunk group as seen by the reader. set is
// only valid while phase is groupActive.
type dataGroup struct {
	phase   groupPhase
	set     *DeflatedSet
	skipped int64 // compressed bytes dropped after the set was ended
}

// chunkInProgress is the chunk whose payload or checksum is being read.
type chunkInProgress struct {
	id     string
	length int
	offset int64
	read   int
	chunk  chunks.Chunk
	raw    *chunks.RawChunk // nil when routed to the set or skipped
	toSet  bool
	crc    hash.Hash32
	crcBuf [4]byte
	crcLen int
}

// Reader is the chunk sequence reader. Bytes are pushed with Consume;
// ordinary chunks are built by the chunk factory and collected in
// Chunks(), the payload of the IDAT group goes to a DeflatedSet.
//
// A Reader serves one stream and is not safe for concurrent use.
type Reader struct {
	opts  Options
	state readState

	buf    [8]byte // signature or chunk header being assembled
	bufLen int
	cur    chunkInProgress

	group       dataGroup
	seen        map[string]int
	seenPalette bool
	list        chunks.List
	info        *chunks.ImageInfo

	bytesCount int64
	chunkCount int
	dataBytes  int64
	err        error
}

// NewReader returns a reader waiting for the PNG signature.
func NewReader(opts Options) *Reader {
	opts.setDefaults()
	r := &Reader{
		opts: opts,
		seen: make(map[string]int),
		cur:  chunkInProgress{crc: crc32.NewIEEE()},
	}
	if opts.SkipSignature {
		r.state = awaitingChunkHeader
	}
	return r
}

// Consume processes a prefix of b and returns its length. It may take
// fewer bytes than offered when a record (signature, header, payload,
// checksum) ends inside b; the caller offers the rest again. Errors are
// final: every later call returns the same error.
func (r *Reader) Consume(b []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.state == readDone {
		return 0, ErrReaderDone
	}
	if len(b) == 0 {
		return 0, nil
	}
	var n int
	var err error
	switch r.state {
	case awaitingSignature:
		n, err = r.consumeSignature(b)
	case awaitingChunkHeader:
		n, err = r.consumeHeader(b)
	case awaitingChunkPayload:
		n, err = r.consumePayload(b)
	case awaitingChecksum:
		n, err = r.consumeChecksum(b)
	}
	r.bytesCount += int64(n)
	if err == nil && r.opts.MaxTotalBytes > 0 && r.bytesCount > r.opts.MaxTotalBytes {
		err = structuralError(r.bytesCount, r.cur.id,
			errors.Errorf("maximum total bytes to read exceeded (%d)", r.opts.MaxTotalBytes))
	}
	if err != nil {
		r.fail(err)
	}
	return n, err
}

// ConsumeAll consumes b until it is exhausted or the reader is done.
func (r *Reader) ConsumeAll(b []byte) (int, error) {
	total := 0
	for len(b) > 0 && !r.Done() {
		n, err := r.Consume(b)
		total += n
		if err != nil {
			return total, err
		}
		b = b[n:]
	}
	return total, nil
}

func (r *Reader) consumeSignature(b []byte) (int, error) {
	n := copy(r.buf[r.bufLen:len(pngHeader)], b)
	r.bufLen += n
	if got := string(r.buf[:r.bufLen]); got != pngHeader[:r.bufLen] {
		return n, &Error{
			Kind:     ErrStructural,
			Expected: fmt.Sprintf("% x", pngHeader),
			Actual:   fmt.Sprintf("% x", got),
			Err:      errors.New("not a PNG file"),
		}
	}
	if r.bufLen == len(pngHeader) {
		r.bufLen = 0
		r.state = awaitingChunkHeader
	}
	return n, nil
}

func (r *Reader) consumeHeader(b []byte) (int, error) {
	n := copy(r.buf[r.bufLen:], b)
	r.bufLen += n
	if r.bufLen < len(r.buf) {
		return n, nil
	}
	r.bufLen = 0
	offset := r.bytesCount + int64(n) - 8
	length := binary.BigEndian.Uint32(r.buf[:4])
	return n, r.startChunk(length, string(r.buf[4:8]), offset)
}

func (r *Reader) startChunk(length uint32, id string, offset int64) error {
	if !chunks.ValidID(id) {
		return structuralError(offset, "", errors.Errorf("bad chunk id %q", id))
	}
	if length > chunks.MaxLength {
		return &Error{Kind: ErrStructural, Offset: offset, ChunkID: id,
			Expected: fmt.Sprintf("length <= %d", chunks.MaxLength), Actual: fmt.Sprint(length)}
	}
	r.chunkCount++
	r.cur = chunkInProgress{id: id, length: int(length), offset: offset, crc: r.cur.crc}
	r.cur.crc.Reset()
	r.cur.crc.Write(r.buf[4:8])
	r.state = awaitingChunkPayload
	if length == 0 {
		r.state = awaitingChecksum
	}

	if r.group.phase == groupActive && id != r.group.set.ID {
		if err := r.endGroup(id, offset); err != nil {
			return err
		}
	}
	if r.opts.IsDataKind(id) {
		return r.startDataChunk(id, offset)
	}

	c := r.opts.Factory.Construct(id, r.info)
	if err := r.checkOrder(c, offset); err != nil {
		return err
	}
	r.seen[id]++
	if id == chunks.PLTE {
		r.seenPalette = true
	}
	r.cur.chunk = c
	if r.opts.skipChunk(id, r.cur.length) {
		r.opts.Logger.Printf("skipping chunk %s (%d bytes) at offset %d", id, length, offset)
		return nil
	}
	r.cur.raw = chunks.NewRawChunk(r.cur.length, id, false)
	r.cur.raw.Offset = offset
	r.cur.raw.Data = make([]byte, 0, min(r.cur.length, 1<<16))
	return nil
}

func (r *Reader) startDataChunk(id string, offset int64) error {
	if r.chunkCount == 1 {
		return orderingError(offset, id, chunks.IHDR, id)
	}
	switch r.group.phase {
	case groupEnded:
		return orderingError(offset, id, "consecutive "+id+" chunks", id+" after the group ended")
	case groupNone:
		set, err := r.newDataSet(id)
		if err != nil {
			return structuralError(offset, id, err)
		}
		r.group = dataGroup{phase: groupActive, set: set}
	}
	if err := r.group.set.appendChunk(id); err != nil {
		return structuralError(offset, id, err)
	}
	r.seen[id]++
	r.dataBytes += int64(r.cur.length)
	r.cur.toSet = true
	return nil
}

func (r *Reader) newDataSet(id string) (*DeflatedSet, error) {
	if r.opts.NewDataSet != nil {
		return r.opts.NewDataSet(id, r.info)
	}
	rowLen := r.opts.RowLen
	if rowLen == 0 {
		if r.info == nil {
			return nil, errors.New("row length unknown: no IHDR before image data")
		}
		rowLen = 1 + r.info.BytesPerRow()
	}
	return NewDeflatedSet(id, SetConfig{
		RowLen:       rowLen,
		Callback:     r.opts.OnRow,
		Decompressor: r.opts.Decompressor,
	}), nil
}

// endGroup closes the data group when a chunk of another type arrives.
func (r *Reader) endGroup(next string, offset int64) error {
	set := r.group.set
	if !set.IsDone() {
		if set.IsRowReady() {
			return errors.Wrapf(ErrRowNotDrained, "chunk %s at offset %d", next, offset)
		}
		return &Error{Kind: ErrDecompression, Offset: offset, ChunkID: set.ID,
			Expected: "end of compressed stream", Actual: "chunk " + next, Err: io.ErrUnexpectedEOF}
	}
	if n := set.BytesDiscarded(); n > 0 {
		r.opts.Logger.Printf("%s group: %d inflated bytes discarded", set.ID, n)
	}
	if r.group.skipped > 0 {
		r.opts.Logger.Printf("%s group: %d compressed bytes skipped", set.ID, r.group.skipped)
	}
	set.End()
	r.group = dataGroup{phase: groupEnded}
	return nil
}

func (r *Reader) checkOrder(c chunks.Chunk, offset int64) error {
	id := c.ID()
	constraint := c.OrderingConstraint()
	first := r.chunkCount == 1
	if first && constraint != chunks.MustBeFirst {
		return orderingError(offset, id, chunks.IHDR, id)
	}
	if !c.AllowsMultiple() && r.seen[id] > 0 {
		return orderingError(offset, id, "single "+id, fmt.Sprintf("%s #%d", id, r.seen[id]+1))
	}
	pos := chunks.Position{
		First:       first,
		SeenPalette: r.seenPalette,
		SeenData:    r.group.phase != groupNone,
	}
	if ok, where := constraint.Allows(pos); !ok {
		return orderingError(offset, id, where, r.position())
	}
	if constraint == chunks.MustBeLast && r.group.phase == groupNone && !r.opts.AllowMissingData {
		return &Error{Kind: ErrTruncated, Offset: offset, ChunkID: id, Expected: "image data", Actual: id,
			Err: errors.New("stream ended before image data")}
	}
	return nil
}

func (r *Reader) position() string {
	switch {
	case r.group.phase != groupNone:
		return "after image data"
	case r.seenPalette:
		return "after " + chunks.PLTE
	}
	return fmt.Sprintf("chunk #%d", r.chunkCount)
}

func (r *Reader) consumePayload(b []byte) (int, error) {
	n := min(len(b), r.cur.length-r.cur.read)
	p := b[:n]
	if !r.opts.SkipCRC {
		r.cur.crc.Write(p)
	}
	switch {
	case r.cur.toSet:
		set := r.group.set
		if set.IsTerminated() {
			r.group.skipped += int64(n)
		} else if err := set.Feed(p); err != nil {
			return n, r.dataError(err)
		}
	case r.cur.raw != nil:
		r.cur.raw.Data = append(r.cur.raw.Data, p...)
	}
	r.cur.read += n
	if r.cur.read == r.cur.length {
		r.state = awaitingChecksum
	}
	return n, nil
}

func (r *Reader) dataError(err error) error {
	if errors.Is(err, ErrRowNotDrained) || errors.Is(err, ErrSetEnded) {
		return err
	}
	return &Error{Kind: ErrDecompression, Offset: r.cur.offset, ChunkID: r.cur.id, Err: err}
}

func (r *Reader) consumeChecksum(b []byte) (int, error) {
	n := copy(r.cur.crcBuf[r.cur.crcLen:], b)
	r.cur.crcLen += n
	if r.cur.crcLen < len(r.cur.crcBuf) {
		return n, nil
	}
	got := binary.BigEndian.Uint32(r.cur.crcBuf[:])
	if !r.opts.SkipCRC {
		if want := r.cur.crc.Sum32(); got != want {
			return n, &Error{Kind: ErrStructural, Offset: r.cur.offset, ChunkID: r.cur.id,
				Expected: fmt.Sprintf("crc %08x", want), Actual: fmt.Sprintf("crc %08x", got),
				Err: errors.New("invalid checksum")}
		}
	}
	return n, r.chunkDone(got)
}

func (r *Reader) chunkDone(crc uint32) error {
	r.state = awaitingChunkHeader
	if r.cur.toSet {
		return nil
	}
	c := r.cur.chunk
	if raw := r.cur.raw; raw != nil {
		raw.CRC = crc
		if err := c.ParseFromRaw(raw); err != nil {
			return structuralError(r.cur.offset, r.cur.id, err)
		}
		if h, ok := c.(*chunks.Header); ok {
			r.info = h.ImageInfo()
		}
		r.list.Add(c)
		if r.opts.OnChunk != nil {
			r.opts.OnChunk(c)
		}
	}
	if c.OrderingConstraint() == chunks.MustBeLast {
		r.state = readDone
	}
	return nil
}

func (r *Reader) fail(err error) {
	r.err = err
	r.Close()
}

// Fail ends the read session with err, as if Consume had returned it:
// the data group is released and every later Consume returns err. A
// session that already failed keeps its first error, which is returned.
// Fail on a done reader is a no-op returning nil.
func (r *Reader) Fail(err error) error {
	if r.err == nil && r.state != readDone {
		r.fail(err)
	}
	return r.err
}

// Close releases the decompressor of an unfinished data group.
func (r *Reader) Close() error {
	if r.group.phase == groupActive {
		r.group.set.End()
		r.group = dataGroup{phase: groupEnded}
	}
	return nil
}

// Done reports whether the terminal chunk was read.
func (r *Reader) Done() bool {
	return r.state == readDone
}

// Err returns the error that stopped the reader, if any.
func (r *Reader) Err() error {
	return r.err
}

// DeflatedSet returns the set of the data group while the group is being
// read.
func (r *Reader) DeflatedSet() (*DeflatedSet, bool) {
	if r.group.phase != groupActive {
		return nil, false
	}
	return r.group.set, true
}

// DataGroupStarted reports whether the first chunk of the data group was
// seen.
func (r *Reader) DataGroupStarted() bool {
	return r.group.phase != groupNone
}

// Chunks returns the ordinary chunks read so far.
func (r *Reader) Chunks() *chunks.List {
	return &r.list
}

// ImageInfo returns the image description from IHDR, nil before it.
func (r *Reader) ImageInfo() *chunks.ImageInfo {
	return r.info
}

// BytesCount is the number of bytes consumed.
func (r *Reader) BytesCount() int64 {
	return r.bytesCount
}

// ChunkCount is the number of chunk headers read.
func (r *Reader) ChunkCount() int {
	return r.chunkCount
}

// DataBytes is the total payload length of the data group chunks.
func (r *Reader) DataBytes() int64 {
	return r.dataBytes
}
