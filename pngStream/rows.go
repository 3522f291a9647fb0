package pngStream

import (
	"fmt"
	"io"
	"strings"
)

// RowReader reads the rows of the data group of a stream in poll mode,
// driving a Reader with a Feeder.
type RowReader struct {
	r *Reader
	f *Feeder
}

// NewRowReader reads src in buffers of bufSize bytes. opts.OnRow is
// ignored.
func NewRowReader(src io.Reader, bufSize int, opts Options) *RowReader {
	opts.OnRow = nil
	return &RowReader{
		r: NewReader(opts),
		f: NewFeeder(src, bufSize),
	}
}

// Reader returns the underlying chunk sequence reader.
func (rr *RowReader) Reader() *Reader {
	return rr.r
}

func (rr *RowReader) feed() error {
	if rr.r.Done() {
		return io.EOF
	}
	for empty := 0; empty <= maxEmptyFeeds; empty++ {
		n, err := rr.f.Feed(rr.r)
		if err == io.EOF {
			return rr.r.Fail(truncatedError(rr.r.BytesCount()))
		}
		if err != nil {
			return rr.r.Fail(err)
		}
		if n > 0 {
			return nil
		}
	}
	return rr.r.Fail(io.ErrNoProgress)
}

// NextRow feeds the reader until a row is ready and returns it with its
// number. The row stays valid until Advance. io.EOF means the data group
// produces no more rows.
func (rr *RowReader) NextRow() ([]byte, int, error) {
	for !rr.r.DataGroupStarted() {
		if err := rr.feed(); err != nil {
			return nil, 0, err
		}
	}
	for {
		set, ok := rr.r.DeflatedSet()
		if !ok || set.IsDone() {
			return nil, 0, io.EOF
		}
		if set.IsRowReady() {
			return set.InflatedRow(), set.Rown(), nil
		}
		if err := rr.feed(); err != nil {
			return nil, 0, err
		}
	}
}

// Advance acknowledges the current row and sets the next row length. A
// length below 1 stops reading rows.
func (rr *RowReader) Advance(nextLen int) error {
	set, ok := rr.r.DeflatedSet()
	if !ok {
		return nil
	}
	return set.PrepareForNextRow(nextLen)
}

// Finish drops the rows not read, reads the rest of the stream up to the
// terminal chunk and releases the source.
func (rr *RowReader) Finish() error {
	if set, ok := rr.r.DeflatedSet(); ok {
		set.End()
	}
	err := rr.f.FeedAll(rr.r)
	if endErr := rr.f.End(); err == nil {
		err = endErr
	}
	return err
}

// Close releases the decompressor and the source without reading further.
func (rr *RowReader) Close() error {
	rr.r.Close()
	return rr.f.End()
}

// FormatRow renders a row as r=N[ f|  b   b ...], with the first byte
// (the filter type of a scanline) set apart.
func FormatRow(row []byte, rown int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "r=%d[", rown)
	if len(row) > 0 {
		fmt.Fprintf(&sb, "%3d|", row[0])
		for i, b := range row[1:] {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%3d", b)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
