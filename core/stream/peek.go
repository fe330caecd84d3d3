package stream

import (
	"errors"
	"io"
)

// PeekableReader wraps a PollReader and buffers bytes fetched from it so
// callers can inspect a prefix of the stream repeatedly without consuming
// it. Bytes are appended only at the tail of the peek buffer, by reads
// against the underlying stream, and removed only from its head, by
// consuming reads. The buffer grows to the largest peek ever requested.
type PeekableReader struct {
	inner PollReader
	// peeked is the filled prefix of the peek buffer; spare capacity
	// beyond len(peeked) is never exposed to callers.
	peeked []byte
}

// NewPeekableReader returns a PeekableReader owning r. No other code may
// read from r while the wrapper is in use.
func NewPeekableReader(r PollReader) *PeekableReader {
	return &PeekableReader{inner: r}
}

// Buffered returns the number of peeked bytes not yet consumed.
func (r *PeekableReader) Buffered() int {
	return len(r.peeked)
}

// PollPeek fills p with the next len(p) bytes of the logical stream
// without consuming them. It returns len(p) once the peek buffer holds
// enough bytes, growing it with underlying reads as needed. ErrNotReady
// suspends the attempt; progress already buffered survives suspension.
// At end-of-stream it copies whatever is buffered and returns the short
// count alongside io.EOF.
func (r *PeekableReader) PollPeek(p []byte) (int, error) {
	for len(r.peeked) < len(p) {
		if cap(r.peeked) < len(p) {
			grown := make([]byte, len(r.peeked), len(p))
			copy(grown, r.peeked)
			r.peeked = grown
		}
		n, err := r.inner.PollRead(r.peeked[len(r.peeked):len(p)])
		if n > 0 {
			r.peeked = r.peeked[:len(r.peeked)+n]
			if err == nil || err == io.EOF {
				continue
			}
		}
		if err == io.EOF {
			return copy(p, r.peeked), io.EOF
		}
		if err != nil {
			return 0, err
		}
		// Zero-byte read with no error; report not ready rather
		// than spinning on the underlying stream.
		return 0, ErrNotReady
	}
	copy(p, r.peeked[:len(p)])
	return len(p), nil
}

// PollRead performs a consuming read: buffered peeked bytes are served
// from the head first, then reads delegate to the underlying stream.
func (r *PeekableReader) PollRead(p []byte) (int, error) {
	if len(r.peeked) == 0 {
		return r.inner.PollRead(p)
	}
	n := copy(p, r.peeked)
	rem := copy(r.peeked, r.peeked[n:])
	r.peeked = r.peeked[:rem]
	return n, nil
}

// Read implements io.Reader by driving PollRead, yielding between
// attempts while the underlying stream is not ready.
func (r *PeekableReader) Read(p []byte) (int, error) {
	for {
		n, err := r.PollRead(p)
		if errors.Is(err, ErrNotReady) {
			yield()
			continue
		}
		return n, err
	}
}
