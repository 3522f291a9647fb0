package pngStream

import (
	"io"
	"iter"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// Decompressor opens a decompressing reader over a compressed stream.
type Decompressor func(r io.Reader) (io.ReadCloser, error)

// Zlib decompresses PNG image data.
func Zlib(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

// RawDeflate decompresses deflate data with no zlib wrapper.
func RawDeflate(r io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}

const inflateBufSize = 4096

var errInflaterClosed = errors.New("inflater closed")

// inflater turns a pull-based Decompressor into a push-based one: input
// is handed over with setInput and output taken with inflate.
//
// The decompressor runs as a coroutine (iter.Pull). Its source suspends
// the coroutine whenever no input is pending, so control only alternates
// between the caller and the decompressor and nothing runs concurrently.
type inflater struct {
	input []byte // compressed bytes not yet taken by the decompressor
	out   []byte // inflated bytes not yet handed out, aliases buf
	buf   []byte

	next func() (struct{}, bool)
	stop func()

	newReader Decompressor
	running   bool // coroutine not returned
	starved   bool // coroutine suspended waiting for input
	eof       bool
	closed    bool
	err       error

	totalIn  int64
	totalOut int64
}

func newInflater(d Decompressor) *inflater {
	if d == nil {
		d = Zlib
	}
	f := &inflater{
		buf:       make([]byte, inflateBufSize),
		newReader: d,
		running:   true,
	}
	f.next, f.stop = iter.Pull(f.run)
	return f
}

func (f *inflater) run(yield func(struct{}) bool) {
	zr, err := f.newReader(&starvingReader{f: f, yield: yield})
	if err != nil {
		f.fail(err)
		return
	}
	defer zr.Close()
	for {
		n, err := zr.Read(f.buf)
		if n > 0 {
			f.out = f.buf[:n]
			f.totalOut += int64(n)
			if !yield(struct{}{}) {
				return
			}
		}
		if err == io.EOF {
			f.eof = true
			return
		}
		if err != nil {
			f.fail(err)
			return
		}
	}
}

func (f *inflater) fail(err error) {
	if f.closed || errors.Is(err, errInflaterClosed) {
		return
	}
	f.err = err
}

// setInput queues compressed bytes. b is copied.
func (f *inflater) setInput(b []byte) {
	f.input = append(f.input, b...)
}

// inflate fills dst as far as the queued input allows. A short count with
// a nil error means more input is needed, or the stream is finished.
func (f *inflater) inflate(dst []byte) (int, error) {
	n := 0
	for n < len(dst) {
		if len(f.out) > 0 {
			c := copy(dst[n:], f.out)
			f.out = f.out[c:]
			n += c
			continue
		}
		if !f.running || f.err != nil || f.closed {
			break
		}
		if f.starved && len(f.input) == 0 {
			break
		}
		f.starved = false
		if _, ok := f.next(); !ok {
			f.running = false
		}
	}
	return n, f.err
}

// finished is true once the stream end was reached and all output taken.
func (f *inflater) finished() bool {
	return f.eof && len(f.out) == 0
}

// pending is the number of inflated bytes not yet handed out.
func (f *inflater) pending() int {
	return len(f.out)
}

// close stops the decompressor. Pending output and input are dropped.
func (f *inflater) close() {
	if f.closed {
		return
	}
	f.closed = true
	f.stop()
	f.running = false
	f.out = nil
	f.input = nil
}

// starvingReader feeds the decompressor from the queued input, yielding
// back to the caller of inflate while the queue is empty.
type starvingReader struct {
	f     *inflater
	yield func(struct{}) bool
}

func (r *starvingReader) wait() error {
	for len(r.f.input) == 0 {
		r.f.starved = true
		if !r.yield(struct{}{}) {
			return errInflaterClosed
		}
	}
	return nil
}

func (r *starvingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := r.wait(); err != nil {
		return 0, err
	}
	n := copy(p, r.f.input)
	r.f.input = r.f.input[n:]
	r.f.totalIn += int64(n)
	return n, nil
}

func (r *starvingReader) ReadByte() (byte, error) {
	if err := r.wait(); err != nil {
		return 0, err
	}
	b := r.f.input[0]
	r.f.input = r.f.input[1:]
	r.f.totalIn++
	return b, nil
}
