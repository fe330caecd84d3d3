package stream

import (
	"errors"
	"io"
)

// PeekExact is a single-use operation that fills a destination buffer with
// the leading bytes of a stream via non-consuming peeks. It owns the
// wrapper and the buffer while working and hands both back at a terminal
// state; on failure the wrapper is still returned, so bytes already peeked
// stay recoverable through it.
type PeekExact struct {
	r    *PeekableReader
	buf  []byte
	pos  int
	done bool
}

// NewPeekExact returns a PeekExact that will fill buf from r. A
// zero-length buf succeeds on the first poll without touching the stream.
func NewPeekExact(r *PeekableReader, buf []byte) *PeekExact {
	return &PeekExact{r: r, buf: buf}
}

// Poll attempts progress without blocking. It returns (nil, nil,
// ErrNotReady) while the stream is not ready; on success it returns the
// wrapper and the fully peeked buffer; on failure it returns the wrapper
// and the error, with io.ErrUnexpectedEOF when the stream ended early.
// Polling after a terminal state is a caller bug and panics.
func (op *PeekExact) Poll() (*PeekableReader, []byte, error) {
	if op.done {
		panic("stream: poll of completed PeekExact")
	}
	// The peek always yields the stream head, so the whole destination
	// is re-peeked each step; resume state lives in the wrapper's
	// buffer and pos only records progress for the early-EOF error.
	if op.pos < len(op.buf) {
		n, err := op.r.PollPeek(op.buf)
		switch {
		case errors.Is(err, ErrNotReady):
			return nil, nil, ErrNotReady
		case err == io.EOF:
			op.pos = n
			return op.finish(io.ErrUnexpectedEOF)
		case err != nil:
			return op.finish(err)
		}
		op.pos = n
	}
	return op.finish(nil)
}

func (op *PeekExact) finish(err error) (*PeekableReader, []byte, error) {
	op.done = true
	r, buf := op.r, op.buf
	op.r, op.buf = nil, nil
	if err != nil {
		return r, nil, err
	}
	return r, buf, nil
}

// Await drives Poll to a terminal state, yielding while not ready. Only
// sensible over sources that eventually become ready on their own.
func (op *PeekExact) Await() (*PeekableReader, []byte, error) {
	for {
		r, buf, err := op.Poll()
		if errors.Is(err, ErrNotReady) {
			yield()
			continue
		}
		return r, buf, err
	}
}
