// Package pump implements the full-duplex byte copy between two TCP
// connections that backs every paired external/rendezvous connection.
package pump

import (
	"io"
	"net"
	"sync"
)

// readBufferSize is the fixed read buffer per direction.
const readBufferSize = 16 * 1024

// halfCloser is implemented by *net.TCPConn and similar connections that
// support shutting down one direction without closing the whole socket.
type halfCloser interface {
	CloseWrite() error
}

// Result reports how many bytes flowed in each direction once both
// halves of the pump have finished.
type Result struct {
	AToB int64
	BToA int64
}

// Run copies a->b and b->a concurrently until EOF or error on either
// side, then drives an orderly shutdown of both connections: a
// half-close where the connection type supports it, otherwise a full
// close, with errors from already-closed sockets suppressed. It never
// holds a lock across I/O; each direction owns its own goroutine and
// buffer.
func Run(a, b net.Conn) Result {
	var wg sync.WaitGroup
	var res Result

	wg.Add(2)
	go func() {
		defer wg.Done()
		res.AToB = copyAndShutdown(b, a)
	}()
	go func() {
		defer wg.Done()
		res.BToA = copyAndShutdown(a, b)
	}()
	wg.Wait()

	_ = a.Close()
	_ = b.Close()
	return res
}

// copyAndShutdown copies src->dst with a fixed buffer, then shuts down
// the write side of dst (signaling EOF downstream) and the read side
// implied by closing src's write direction is left to the caller's
// final Close in Run. Errors from an already-closed peer are ignored:
// the other pump direction or Run's final Close will have triggered them.
func copyAndShutdown(dst io.Writer, src io.Reader) int64 {
	buf := make([]byte, readBufferSize)
	n, _ := io.CopyBuffer(dst, src, buf)

	if hc, ok := dst.(halfCloser); ok {
		_ = hc.CloseWrite()
	}
	return n
}
