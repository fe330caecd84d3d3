package stream

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeekExactAcrossChunkBoundaries(t *testing.T) {
	data := "GET / HTTP/1.1\r\n"
	for _, size := range []int{1, 3, 7, len(data)} {
		r := NewPeekableReader(chunked(data, size))

		op := NewPeekExact(r, make([]byte, 10))
		back, buf, err := op.Await()
		require.NoError(t, err)
		require.Equal(t, data[:10], string(buf))

		// Nothing was consumed: the full stream replays.
		rest, err := io.ReadAll(back)
		require.NoError(t, err)
		require.Equal(t, data, string(rest))
	}
}

func TestPeekExactEarlyEOF(t *testing.T) {
	r := NewPeekableReader(chunked("abcd", 2))

	op := NewPeekExact(r, make([]byte, 5))
	back, buf, err := op.Await()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Nil(t, buf)

	// Ownership of the wrapper comes back and the peeked prefix
	// remains readable.
	require.NotNil(t, back)
	require.Equal(t, 4, back.Buffered())
	rest, err := io.ReadAll(back)
	require.NoError(t, err)
	require.Equal(t, "abcd", string(rest))
}

func TestPeekExactZeroLengthBuffer(t *testing.T) {
	src := &scriptReader{}
	r := NewPeekableReader(src)

	op := NewPeekExact(r, nil)
	back, buf, err := op.Poll()
	require.NoError(t, err)
	require.NotNil(t, back)
	require.Empty(t, buf)
	require.Zero(t, src.polls, "zero-length peek must not touch the stream")
}

func TestPeekExactSuspendsAndResumes(t *testing.T) {
	src := &scriptReader{steps: []scriptStep{
		{data: []byte("he")},
		notReady(),
		{data: []byte("llo")},
	}}
	op := NewPeekExact(NewPeekableReader(src), make([]byte, 5))

	_, _, err := op.Poll()
	require.ErrorIs(t, err, ErrNotReady)

	back, buf, err := op.Poll()
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))
	require.NotNil(t, back)
}

func TestPeekExactPollAfterDonePanics(t *testing.T) {
	op := NewPeekExact(NewPeekableReader(chunked("ab", 2)), make([]byte, 2))
	_, _, err := op.Await()
	require.NoError(t, err)

	require.Panics(t, func() { op.Poll() })
}
