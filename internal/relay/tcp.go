package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/fb0sh/gout/internal/pump"
	"github.com/fb0sh/gout/internal/stats"
	"github.com/fb0sh/gout/internal/wire"
)

// serveTCP binds the rendezvous and public listeners, completes the
// handshake, and runs the accept loop that pairs each external
// connection with one agent-initiated rendezvous connection.
//
// NEW_CONN is written and the matching rendezvous Accept is performed in
// the same loop iteration, so the two streams stay in FIFO
// correspondence even under a burst of external connections: later
// connections simply queue in the listener backlog.
func serveTCP(ctx context.Context, conn net.Conn, req *wire.HandshakeRequest, alloc PortAllocator, returnIP string, logger *slog.Logger, st *stats.Stats) error {
	rendezvousLn, err := listenReuseAddr(ctx, "tcp", "0.0.0.0:0")
	if err != nil {
		return fmt.Errorf("relay: bind rendezvous listener: %w", err)
	}
	defer rendezvousLn.Close()
	rendezvousPort := rendezvousLn.Addr().(*net.TCPAddr).Port

	publicPort, err := alloc.Allocate()
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	publicLn, err := listenReuseAddr(ctx, "tcp", fmt.Sprintf("0.0.0.0:%d", publicPort))
	if err != nil {
		return fmt.Errorf("relay: bind public listener on %d: %w", publicPort, err)
	}
	defer publicLn.Close()

	resp := &wire.HandshakeResponse{IP: returnIP, Port: publicPort, DataPort: rendezvousPort}
	if err := wire.WriteHandshakeResponse(conn, resp); err != nil {
		return fmt.Errorf("relay: write handshake response: %w", err)
	}

	logger.Info("tcp tunnel listening", "public_port", publicPort, "rendezvous_port", rendezvousPort, "upstream_port", req.Port)

	sw := wire.NewSafeWriter(conn)

	controlClosed := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
		close(controlClosed)
		_ = rendezvousLn.Close()
		_ = publicLn.Close()
	}()

	for {
		extConn, err := publicLn.Accept()
		if err != nil {
			break
		}

		if _, err := sw.Write([]byte(wire.NewConnLine)); err != nil {
			extConn.Close()
			break
		}

		rendConn, err := rendezvousLn.Accept()
		if err != nil {
			extConn.Close()
			break
		}
		st.TCPConnection()

		go func() {
			res := pump.Run(extConn, rendConn)
			st.BytesForwarded(uint64(res.AToB + res.BToA))
			logger.Debug("tcp connection finished", "public_port", publicPort, "ext_to_rendezvous", res.AToB, "rendezvous_to_ext", res.BToA)
		}()
	}

	_ = publicLn.Close()
	_ = rendezvousLn.Close()
	<-controlClosed
	return nil
}
