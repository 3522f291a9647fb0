package pngStream

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kinds of read failures. An *Error always matches exactly one of them
// with errors.Is.
var (
	ErrStructural    = errors.New("structural error")
	ErrOrdering      = errors.New("chunk out of order")
	ErrTruncated     = errors.New("truncated stream")
	ErrDecompression = errors.New("decompression error")
)

// Programming errors.
var (
	ErrSetEnded      = errors.New("deflated set already ended")
	ErrRowNotDrained = errors.New("row ready but not acknowledged")
	ErrReaderDone    = errors.New("reader already done")
)

// Error is the single failure a read session reports.
type Error struct {
	Kind     error  // one of ErrStructural, ErrOrdering, ErrTruncated, ErrDecompression
	Offset   int64  // stream position of the record at fault
	ChunkID  string // empty before the first chunk
	Expected string
	Actual   string
	Err      error // cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("png: %v at offset %d", e.Kind, e.Offset)
	if e.ChunkID != "" {
		msg += fmt.Sprintf(" (chunk %s)", e.ChunkID)
	}
	if e.Expected != "" || e.Actual != "" {
		msg += fmt.Sprintf(": expected %s, got %s", e.Expected, e.Actual)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func structuralError(offset int64, id string, cause error) *Error {
	return &Error{Kind: ErrStructural, Offset: offset, ChunkID: id, Err: cause}
}

func orderingError(offset int64, id, expected, actual string) *Error {
	return &Error{Kind: ErrOrdering, Offset: offset, ChunkID: id, Expected: expected, Actual: actual}
}
