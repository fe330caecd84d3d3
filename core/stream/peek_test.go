package stream

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPollPeekNonDestructive(t *testing.T) {
	r := NewPeekableReader(chunked("hello world", 3))

	buf := make([]byte, 5)
	n, err := r.PollPeek(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))

	// Peeking again yields the identical bytes.
	again := make([]byte, 5)
	n, err = r.PollPeek(again)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(again))

	// A consuming read serves the peeked head first.
	got := make([]byte, 3)
	n, err = r.PollRead(got)
	require.NoError(t, err)
	require.Equal(t, "hel", string(got[:n]))
	require.Equal(t, 2, r.Buffered())

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "lo world", string(rest))
}

func TestPollPeekPreservesProgressAcrossSuspension(t *testing.T) {
	src := &scriptReader{steps: []scriptStep{
		notReady(),
		{data: []byte("ab")},
		notReady(),
		{data: []byte("cd")},
	}}
	r := NewPeekableReader(src)

	buf := make([]byte, 4)
	_, err := r.PollPeek(buf)
	require.ErrorIs(t, err, ErrNotReady)
	require.Zero(t, r.Buffered())

	_, err = r.PollPeek(buf)
	require.ErrorIs(t, err, ErrNotReady)
	require.Equal(t, 2, r.Buffered())

	n, err := r.PollPeek(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "abcd", string(buf))
}

func TestPollPeekShortAtEOF(t *testing.T) {
	r := NewPeekableReader(chunked("abc", 2))

	buf := make([]byte, 5)
	n, err := r.PollPeek(buf)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 3, n)
	require.Equal(t, "abc", string(buf[:n]))

	// The short prefix is still consumable.
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "abc", string(rest))
}

func TestPollReadDelegatesWhenNothingPeeked(t *testing.T) {
	src := chunked("xyz", 3)
	r := NewPeekableReader(src)

	buf := make([]byte, 3)
	n, err := r.PollRead(buf)
	require.NoError(t, err)
	require.Equal(t, "xyz", string(buf[:n]))
	require.Equal(t, 1, src.polls)
}
