package pngStream

import (
	"github.com/pkg/errors"
)

type setState int

const (
	stateWaitingForInput setState = iota
	stateRowReady
	stateWorkDone   // no more rows; further input is discarded
	stateTerminated // ended, decompressor released
)

func (s setState) isDone() bool {
	return s == stateWorkDone || s == stateTerminated
}

func (s setState) String() string {
	switch s {
	case stateWaitingForInput:
		return "waiting for input"
	case stateRowReady:
		return "row ready"
	case stateWorkDone:
		return "work done"
	case stateTerminated:
		return "terminated"
	}
	return "invalid"
}

// RowView is what a row callback may look at.
type RowView interface {
	// InflatedRow returns the filled part of the current row. The slice is
	// reused for the next row.
	InflatedRow() []byte
	RowFilled() int
	Rown() int
}

// RowCallback is called each time a row is complete. It returns the
// length of the next row; a value below 1 stops the set, and the rest of
// the compressed stream is discarded without being inflated.
type RowCallback func(row RowView) int

// SetConfig configures a DeflatedSet.
type SetConfig struct {
	RowLen       int         // length of the first row
	Callback     RowCallback // nil selects poll mode
	Decompressor Decompressor
}

// DeflatedSet inflates the payload of a run of consecutive chunks (the
// IDAT group) and splits the output into rows.
//
// In callback mode rows are handed to the callback from inside Feed. In
// poll mode the caller checks IsRowReady after each Feed, reads the row
// and acknowledges it with PrepareForNextRow; Feed must not be called
// while a row is ready.
//
// A DeflatedSet is not safe for concurrent use.
type DeflatedSet struct {
	ID string

	row       []byte
	rowLen    int
	rowFilled int
	rown      int
	state     setState
	callback  RowCallback

	inf *inflater
	err error

	chunkCount int
	bytesIn    int64
	delivered  int64
	discarded  int64
}

// NewDeflatedSet returns a set for chunks of type id, ready for row 0.
func NewDeflatedSet(id string, cfg SetConfig) *DeflatedSet {
	s := &DeflatedSet{
		ID:       id,
		rown:     -1,
		callback: cfg.Callback,
		inf:      newInflater(cfg.Decompressor),
		state:    stateWaitingForInput,
	}
	if cfg.RowLen > 0 {
		s.row = make([]byte, cfg.RowLen)
	}
	s.PrepareForNextRow(cfg.RowLen)
	return s
}

// CallbackMode reports whether rows are delivered to a callback.
func (s *DeflatedSet) CallbackMode() bool {
	return s.callback != nil
}

// appendChunk registers one more chunk of the group.
func (s *DeflatedSet) appendChunk(id string) error {
	if id != s.ID {
		return errors.Errorf("chunk %s does not belong to %s set", id, s.ID)
	}
	s.chunkCount++
	return nil
}

// Feed inflates compressed bytes into the current row. Once the set is
// done the bytes are counted and discarded.
func (s *DeflatedSet) Feed(b []byte) error {
	if s.state == stateTerminated {
		return ErrSetEnded
	}
	if s.err != nil {
		return s.err
	}
	s.bytesIn += int64(len(b))
	if len(b) == 0 || s.state.isDone() {
		return nil
	}
	if s.state == stateRowReady {
		return ErrRowNotDrained
	}
	s.inf.setInput(b)
	if s.callback == nil {
		_, err := s.inflateData()
		return err
	}
	for {
		ready, err := s.inflateData()
		if err != nil || !ready {
			return err
		}
		if err := s.PrepareForNextRow(s.callback(s)); err != nil {
			return err
		}
	}
}

// inflateData fills the current row and reports whether it became ready.
func (s *DeflatedSet) inflateData() (bool, error) {
	if s.state == stateRowReady {
		return false, errors.New("inflate called with a row ready")
	}
	if s.state.isDone() {
		return false, nil
	}
	if len(s.row) < s.rowLen {
		s.row = make([]byte, s.rowLen)
	}
	if s.rowFilled < s.rowLen && !s.inf.finished() {
		n, err := s.inf.inflate(s.row[s.rowFilled:s.rowLen])
		s.rowFilled += n
		if err != nil {
			s.err = errors.Wrap(err, "inflate")
			s.close()
			return false, s.err
		}
	}
	switch {
	case s.rowFilled == s.rowLen:
		s.state = stateRowReady
	case !s.inf.finished():
		s.state = stateWaitingForInput
	case s.rowFilled > 0:
		// last row, shorter than asked
		s.state = stateRowReady
	default:
		s.done()
	}
	return s.state == stateRowReady, nil
}

// PrepareForNextRow acknowledges the current row and sets the length of
// the next one, which may differ. A length below 1 stops the set. In poll
// mode the next row is inflated right away from input already fed.
func (s *DeflatedSet) PrepareForNextRow(rowLen int) error {
	if s.state == stateTerminated {
		return ErrSetEnded
	}
	s.delivered += int64(s.rowFilled)
	s.rowFilled = 0
	s.rown++
	if rowLen < 1 || s.inf.finished() {
		s.rowLen = 0
		s.done()
		return nil
	}
	s.state = stateWaitingForInput
	s.rowLen = rowLen
	if s.callback == nil {
		_, err := s.inflateData()
		return err
	}
	return nil
}

// done stops producing rows; inflated bytes not yet in a row are dropped.
func (s *DeflatedSet) done() {
	if s.state.isDone() {
		return
	}
	s.state = stateWorkDone
	s.close()
}

func (s *DeflatedSet) close() {
	if s.inf == nil {
		return
	}
	s.discarded += int64(s.inf.pending())
	s.inf.close()
}

// End finalizes the set. Row bytes not acknowledged and inflated bytes
// still buffered are counted as discarded.
func (s *DeflatedSet) End() error {
	if s.state == stateTerminated {
		return nil
	}
	if !s.state.isDone() {
		s.discarded += int64(s.rowFilled)
		s.rowFilled = 0
	}
	s.close()
	s.state = stateTerminated
	return nil
}

// IsRowReady reports whether a full (or final) row awaits acknowledgment.
func (s *DeflatedSet) IsRowReady() bool {
	return s.state == stateRowReady
}

// IsWaitingForInput reports whether the set needs more compressed bytes.
func (s *DeflatedSet) IsWaitingForInput() bool {
	return s.state == stateWaitingForInput
}

// IsDone reports whether no more rows will be produced.
func (s *DeflatedSet) IsDone() bool {
	return s.state.isDone()
}

// IsTerminated reports whether End was called.
func (s *DeflatedSet) IsTerminated() bool {
	return s.state == stateTerminated
}

func (s *DeflatedSet) InflatedRow() []byte {
	return s.row[:s.rowFilled]
}

func (s *DeflatedSet) RowFilled() int {
	return s.rowFilled
}

func (s *DeflatedSet) Rown() int {
	return s.rown
}

// RowLen is the capacity of the current row.
func (s *DeflatedSet) RowLen() int {
	return s.rowLen
}

// ChunkCount is the number of chunks of the group seen so far.
func (s *DeflatedSet) ChunkCount() int {
	return s.chunkCount
}

// BytesIn is the number of compressed bytes fed, discarded ones included.
func (s *DeflatedSet) BytesIn() int64 {
	return s.bytesIn
}

// BytesOut is the number of bytes the decompressor produced.
func (s *DeflatedSet) BytesOut() int64 {
	return s.inf.totalOut
}

// BytesDelivered is the number of bytes in acknowledged rows.
func (s *DeflatedSet) BytesDelivered() int64 {
	return s.delivered
}

// BytesDiscarded is the number of inflated bytes dropped without being
// delivered in a row.
func (s *DeflatedSet) BytesDiscarded() int64 {
	return s.discarded
}

func (s *DeflatedSet) String() string {
	return "DeflatedSet " + s.ID + " (" + s.state.String() + ")"
}
