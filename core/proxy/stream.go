package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

const copyDeadline = 5 * time.Second

// Stream pumps bytes in both directions between src and dst until either
// side ends, then closes both.
func Stream(src, dst io.ReadWriter) error {
	return StreamWithContext(context.Background(), src, dst)
}

// StreamWithContext is Stream bounded by ctx.
func StreamWithContext(ctx context.Context, src, dst io.ReadWriter) error {
	localCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errch := make(chan error, 1)

	pump := func(dst, src io.ReadWriter) {
		if err := copyWithContext(localCtx, dst, src); err != nil {
			select {
			case errch <- err:
			default:
			}
		}
		// One direction ending ends the session; cancel unblocks the
		// other pump's pending read.
		cancel()
	}

	wg.Go(func() { pump(dst, src) })
	wg.Go(func() { pump(src, dst) })

	wg.Wait()

	closeConnection(src)
	closeConnection(dst)

	select {
	case err := <-errch:
		if errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
			return ctx.Err()
		}
		return err
	default:
		return ctx.Err()
	}
}

// copyWithContext copies src into dst until EOF, watching ctx so a
// cancelled session closes the source and unblocks the pending read.
func copyWithContext(ctx context.Context, dst, src io.ReadWriter) error {
	buf := make([]byte, 32*1024)

	if conn, ok := src.(net.Conn); ok {
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		defer stop()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		setDeadline(ctx, src, false)

		n, readErr := src.Read(buf)
		if n > 0 {
			setDeadline(ctx, dst, true)
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
		}

		if readErr != nil {
			var netErr net.Error
			if errors.As(readErr, &netErr) && netErr.Timeout() {
				continue
			}
			if readErr == io.EOF {
				return nil
			}
			return readErr
		}
	}
}

func setDeadline(ctx context.Context, rw io.ReadWriter, write bool) {
	conn, ok := rw.(net.Conn)
	if !ok {
		return
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(copyDeadline)
	}
	if write {
		_ = conn.SetWriteDeadline(deadline)
		return
	}
	_ = conn.SetReadDeadline(deadline)
}

// closeConnection closes rw when it implements io.Closer.
func closeConnection(rw io.ReadWriter) {
	if closer, ok := rw.(io.Closer); ok {
		closer.Close()
	}
}
