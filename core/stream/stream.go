// Package stream implements non-blocking byte-stream primitives for
// protocol sniffing and framing: a peekable reader that can replay
// inspected bytes, single-use peek and delimiter-scan operations, and a
// duplex composer joining independent read and write halves.
package stream

import (
	"errors"
	"io"
	"net"
	"runtime"
	"time"
)

var (
	// ErrNotReady reports that a poll made no progress and should be
	// retried once the underlying resource is ready.
	ErrNotReady = errors.New("stream: not ready")

	// ErrConnectionReset reports that a stream ended before a scan
	// found its separator.
	ErrConnectionReset = errors.New("stream: connection reset before separator")
)

// PollReader is the non-blocking read capability consumed by this package.
// PollRead transfers up to len(p) bytes and returns the count; it returns
// ErrNotReady instead of blocking, and (0, io.EOF) at end-of-stream.
type PollReader interface {
	PollRead(p []byte) (int, error)
}

// PollWriter is the non-blocking write capability. All three methods
// follow the ErrNotReady convention of PollReader.
type PollWriter interface {
	PollWrite(p []byte) (int, error)
	PollFlush() error
	PollShutdown() error
}

// ReaderPoller adapts a blocking io.Reader to the PollReader contract.
// A blocking source is always ready, so PollRead never returns ErrNotReady.
type ReaderPoller struct {
	r io.Reader
}

// NewReaderPoller returns a new ReaderPoller wrapping r.
func NewReaderPoller(r io.Reader) *ReaderPoller {
	return &ReaderPoller{r: r}
}

// PollRead reads from the underlying reader, deferring io.EOF until no
// bytes accompany it.
func (p *ReaderPoller) PollRead(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && err == io.EOF {
		return n, nil
	}
	return n, err
}

// ConnPoller adapts a net.Conn to the PollReader and PollWriter contracts
// using short deadlines: a deadline timeout surfaces as ErrNotReady so the
// caller's scheduler decides when to retry.
type ConnPoller struct {
	conn     net.Conn
	interval time.Duration
}

// NewConnPoller returns a ConnPoller that waits up to interval per attempt
// before reporting ErrNotReady.
func NewConnPoller(conn net.Conn, interval time.Duration) *ConnPoller {
	return &ConnPoller{conn: conn, interval: interval}
}

// PollRead attempts a read within the poll interval.
func (p *ConnPoller) PollRead(b []byte) (int, error) {
	_ = p.conn.SetReadDeadline(time.Now().Add(p.interval))
	n, err := p.conn.Read(b)
	return n, pollErr(n, err)
}

// PollWrite attempts a write within the poll interval.
func (p *ConnPoller) PollWrite(b []byte) (int, error) {
	_ = p.conn.SetWriteDeadline(time.Now().Add(p.interval))
	n, err := p.conn.Write(b)
	return n, pollErr(n, err)
}

// PollFlush is a no-op; a net.Conn holds no userspace write buffer.
func (p *ConnPoller) PollFlush() error {
	return nil
}

// PollShutdown closes the write side when the conn supports half-close,
// otherwise closes the conn.
func (p *ConnPoller) PollShutdown() error {
	if hc, ok := p.conn.(interface{ CloseWrite() error }); ok {
		return hc.CloseWrite()
	}
	return p.conn.Close()
}

func pollErr(n int, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	timeout := errors.As(err, &netErr) && netErr.Timeout()
	if n > 0 && (timeout || err == io.EOF) {
		// Progress outranks the condition; it resurfaces on the next poll.
		return nil
	}
	if timeout {
		return ErrNotReady
	}
	return err
}

// Duplex composes an independently owned read half and write half into one
// full-duplex stream. It is a pure forwarding facade: reads never touch the
// write half and writes never touch the read half.
type Duplex struct {
	r PollReader
	w PollWriter
}

// NewDuplex returns a Duplex over r and w.
func NewDuplex(r PollReader, w PollWriter) *Duplex {
	return &Duplex{r: r, w: w}
}

func (d *Duplex) PollRead(p []byte) (int, error) {
	return d.r.PollRead(p)
}

func (d *Duplex) PollWrite(p []byte) (int, error) {
	return d.w.PollWrite(p)
}

func (d *Duplex) PollFlush() error {
	return d.w.PollFlush()
}

func (d *Duplex) PollShutdown() error {
	return d.w.PollShutdown()
}

// yield hands the thread back to the scheduler between poll attempts.
func yield() {
	runtime.Gosched()
}
