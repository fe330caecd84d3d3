package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// captureWriter records everything forwarded to the write half.
type captureWriter struct {
	wrote    []byte
	flushed  int
	shutdown int
}

func (w *captureWriter) PollWrite(p []byte) (int, error) {
	w.wrote = append(w.wrote, p...)
	return len(p), nil
}

func (w *captureWriter) PollFlush() error {
	w.flushed++
	return nil
}

func (w *captureWriter) PollShutdown() error {
	w.shutdown++
	return nil
}

func TestDuplexForwardsEachHalfIndependently(t *testing.T) {
	src := chunked("from-read-half", 14)
	sink := &captureWriter{}
	d := NewDuplex(NewPeekableReader(src), sink)

	n, err := d.PollWrite([]byte("to-write-half"))
	require.NoError(t, err)
	require.Equal(t, 13, n)
	require.NoError(t, d.PollFlush())
	require.NoError(t, d.PollShutdown())

	// Writes never touched the read half.
	require.Zero(t, src.polls)
	buf := make([]byte, 14)
	n, err = d.PollRead(buf)
	require.NoError(t, err)
	require.Equal(t, "from-read-half", string(buf[:n]))

	// Reads never touched the write half.
	require.Equal(t, "to-write-half", string(sink.wrote))
	require.Equal(t, 1, sink.flushed)
	require.Equal(t, 1, sink.shutdown)
}
