package pngStream

import (
	"io"

	"github.com/pkg/errors"
)

// DefaultBufferSize is the feeder buffer size when none is given.
const DefaultBufferSize = 8192

// Consumer takes pushed bytes. Reader implements it.
type Consumer interface {
	Consume(b []byte) (int, error)
	Done() bool
	// BytesCount is the number of bytes consumed so far.
	BytesCount() int64
	// Fail ends the session with err unless it already failed, and
	// returns the error the session ended with.
	Fail(err error) error
}

// Feeder pulls bytes from a source in bounded reads and pushes them into
// a Consumer. Bytes a Consumer did not take are offered again on the
// next Feed before anything new is read.
type Feeder struct {
	src     io.Reader
	buf     []byte
	offset  int
	pending int
	eof     bool
	ended   bool
	// CloseOnEnd closes the source in End when it is an io.Closer.
	CloseOnEnd bool
}

// NewFeeder returns a feeder reading at most bufSize bytes at a time.
func NewFeeder(src io.Reader, bufSize int) *Feeder {
	if bufSize < 1 {
		bufSize = DefaultBufferSize
	}
	return &Feeder{
		src:        src,
		buf:        make([]byte, bufSize),
		CloseOnEnd: true,
	}
}

func (f *Feeder) refill() error {
	if f.eof {
		return io.EOF
	}
	n, err := f.src.Read(f.buf)
	f.offset, f.pending = 0, n
	if err == io.EOF {
		f.eof = true
		if n > 0 {
			return nil
		}
	}
	return err
}

// Feed offers pending or freshly read bytes to c once and returns the
// number of bytes c took. io.EOF means the source is exhausted.
func (f *Feeder) Feed(c Consumer) (int, error) {
	return f.FeedMax(c, 0)
}

// FeedMax is Feed offering at most limit bytes (0 = no limit).
func (f *Feeder) FeedMax(c Consumer, limit int) (int, error) {
	if f.ended {
		return 0, errors.New("feeder ended")
	}
	if f.pending == 0 {
		if err := f.refill(); err != nil {
			return 0, err
		}
		if f.pending == 0 {
			// a Read returning 0, nil; nothing to offer yet
			return 0, nil
		}
	}
	toFeed := f.pending
	if limit > 0 && limit < toFeed {
		toFeed = limit
	}
	n, err := c.Consume(f.buf[f.offset : f.offset+toFeed])
	f.offset += n
	f.pending -= n
	return n, err
}

// FeedAll feeds c until it is done. A source exhausted first is a
// TruncatedStreamError. Any failure, of the source or of c, ends the
// session of c.
func (f *Feeder) FeedAll(c Consumer) error {
	empty := 0
	for !c.Done() {
		n, err := f.Feed(c)
		if err == io.EOF {
			return c.Fail(truncatedError(c.BytesCount()))
		}
		if err != nil {
			return c.Fail(err)
		}
		if n > 0 {
			empty = 0
		} else if empty++; empty > maxEmptyFeeds {
			return c.Fail(io.ErrNoProgress)
		}
	}
	return nil
}

const maxEmptyFeeds = 100

func truncatedError(offset int64) *Error {
	return &Error{Kind: ErrTruncated, Offset: offset, Expected: "terminal chunk", Actual: "end of input"}
}

// HasPendingInput reports whether bytes were read but not yet consumed,
// or the source may still have some.
func (f *Feeder) HasPendingInput() bool {
	return f.pending > 0 || !f.eof
}

// End releases the source.
func (f *Feeder) End() error {
	if f.ended {
		return nil
	}
	f.ended = true
	f.buf = nil
	f.pending = 0
	if c, ok := f.src.(io.Closer); ok && f.CloseOnEnd {
		return c.Close()
	}
	return nil
}
