package stream

import (
	"bytes"
	"errors"
	"io"
)

// readChunk is the per-poll read size for separator scans. Expected
// working inputs are framing headers of a few hundred bytes.
const readChunk = 1024

// ReadUntil is a single-use operation that consumes a stream until a
// separator byte sequence appears, then splits the accumulated bytes just
// past the separator into a head and a tail.
//
// Reads are consuming: dropping the operation before it completes
// discards whatever the accumulation buffer holds, and those bytes cannot
// be replayed from the stream. Callers that cannot afford to lose a
// prefix must peek instead.
type ReadUntil struct {
	r    PollReader
	sep  []byte
	buf  []byte
	done bool
}

// ReadUntilSeparator returns a ReadUntil scanning r for sep. The
// separator must be non-empty.
func ReadUntilSeparator(r PollReader, sep []byte) *ReadUntil {
	if len(sep) == 0 {
		panic("stream: empty separator")
	}
	return &ReadUntil{r: r, sep: sep}
}

// Poll attempts progress without blocking. While no separator has been
// seen it returns (nil, nil, nil, ErrNotReady) whenever the stream is not
// ready. On success it returns the stream, the head (up to and including
// the separator) and the tail (bytes already read past it). If the stream
// ends first the scan fails with ErrConnectionReset and no partial
// result; other read errors propagate verbatim. The stream is handed back
// on failure as well so the caller can close it. Polling after a terminal
// state is a caller bug and panics.
func (op *ReadUntil) Poll() (PollReader, []byte, []byte, error) {
	if op.done {
		panic("stream: poll of completed ReadUntil")
	}
	var chunk [readChunk]byte
	for {
		n, err := op.r.PollRead(chunk[:])
		if n > 0 {
			op.buf = append(op.buf, chunk[:n]...)
			// Rescan the whole buffer so separators split across
			// read boundaries are still found leftmost-first.
			if pos := bytes.Index(op.buf, op.sep); pos >= 0 {
				cut := pos + len(op.sep)
				head := op.buf[:cut:cut]
				tail := op.buf[cut:]
				r := op.terminate()
				return r, head, tail, nil
			}
			if err == nil || err == io.EOF {
				continue
			}
		}
		switch {
		case errors.Is(err, ErrNotReady):
			return nil, nil, nil, ErrNotReady
		case err == io.EOF:
			return op.terminate(), nil, nil, ErrConnectionReset
		case err != nil:
			return op.terminate(), nil, nil, err
		default:
			// Zero-byte read with no error.
			return nil, nil, nil, ErrNotReady
		}
	}
}

func (op *ReadUntil) terminate() PollReader {
	op.done = true
	r := op.r
	op.r, op.buf = nil, nil
	return r
}

// Await drives Poll to a terminal state, yielding while not ready.
func (op *ReadUntil) Await() (PollReader, []byte, []byte, error) {
	for {
		r, head, tail, err := op.Poll()
		if errors.Is(err, ErrNotReady) {
			yield()
			continue
		}
		return r, head, tail, err
	}
}
