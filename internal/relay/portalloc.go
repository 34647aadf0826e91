// Package relay implements the server side of a gout tunnel: the
// control dispatcher that authenticates agents and the TCP/UDP engines
// that bridge external traffic to them.
package relay

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/fb0sh/gout/internal/wire"
)

// PortAllocator draws ephemeral public ports and confines them to a
// configured inclusive range.
type PortAllocator struct {
	Min int
	Max int
}

// Allocate binds a throwaway TCP socket to 0.0.0.0:0, reads the port the
// OS assigned, and releases it. The caller is expected to rebind that
// exact port promptly; the gap between release and rebind is racy by
// construction.
func (a PortAllocator) Allocate() (int, error) {
	ln, err := net.Listen("tcp", "0.0.0.0:0")
	if err != nil {
		return 0, fmt.Errorf("relay: allocate port: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := ln.Close(); err != nil {
		return 0, fmt.Errorf("relay: allocate port: release probe socket: %w", err)
	}
	if port < a.Min || port > a.Max {
		return 0, fmt.Errorf("%w: allocated port %d outside configured range [%d, %d]", wire.ErrNoFreePort, port, a.Min, a.Max)
	}
	return port, nil
}

// listenReuseAddr binds addr with SO_REUSEADDR set, the same
// syscall.RawConn Control idiom used for SO_REUSEPORT elsewhere, so a
// rendezvous or public listener can rebind a port still draining from a
// prior tunnel's TIME_WAIT sockets.
func listenReuseAddr(ctx context.Context, network, addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var controlErr error
			err := c.Control(func(fd uintptr) {
				controlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return controlErr
		},
	}
	return lc.Listen(ctx, network, addr)
}

// listenPacketReuseAddr is the UDP analogue of listenReuseAddr.
func listenPacketReuseAddr(ctx context.Context, network, addr string) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var controlErr error
			err := c.Control(func(fd uintptr) {
				controlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return controlErr
		},
	}
	return lc.ListenPacket(ctx, network, addr)
}
