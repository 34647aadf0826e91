package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/fb0sh/gout/internal/stats"
	"github.com/fb0sh/gout/internal/wire"
)

const maxUDPDatagram = 65535

// serveUDP binds the public UDP socket, completes the handshake, and
// runs the ingress/egress workers that frame datagrams over the single
// control connection. Egress targets are taken verbatim from the
// envelope the agent sends; nothing validates them against the peers
// ingress has actually seen.
func serveUDP(ctx context.Context, conn net.Conn, req *wire.HandshakeRequest, alloc PortAllocator, returnIP string, logger *slog.Logger, st *stats.Stats) error {
	publicPort, err := alloc.Allocate()
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	pc, err := listenPacketReuseAddr(ctx, "udp", fmt.Sprintf("0.0.0.0:%d", publicPort))
	if err != nil {
		return fmt.Errorf("relay: bind public udp socket on %d: %w", publicPort, err)
	}
	udpConn := pc.(*net.UDPConn)
	defer udpConn.Close()

	resp := &wire.HandshakeResponse{IP: returnIP, Port: publicPort, Protocol: wire.ProtocolUDP}
	if err := wire.WriteHandshakeResponse(conn, resp); err != nil {
		return fmt.Errorf("relay: write handshake response: %w", err)
	}

	logger.Info("udp tunnel listening", "public_port", publicPort, "upstream_port", req.Port)

	sw := wire.NewSafeWriter(conn)
	errCh := make(chan error, 2)

	go func() { errCh <- udpIngress(udpConn, sw, st) }()
	go func() { errCh <- udpEgress(conn, udpConn, st) }()

	first := <-errCh
	_ = udpConn.Close()
	_ = conn.Close()
	<-errCh
	return first
}

// udpIngress reads datagrams from the public socket and frames them to
// the agent over the control connection.
func udpIngress(udpConn *net.UDPConn, sw *wire.SafeWriter, st *stats.Stats) error {
	seen := make(map[string]struct{})
	buf := make([]byte, maxUDPDatagram)
	for {
		n, peer, err := udpConn.ReadFromUDP(buf)
		if err != nil {
			return err
		}
		if _, ok := seen[peer.String()]; !ok {
			seen[peer.String()] = struct{}{}
			st.UDPPeer()
		}
		frame, err := wire.EncodeEnvelope(peer, buf[:n])
		if err != nil {
			continue
		}
		if _, err := sw.Write(frame); err != nil {
			return err
		}
		st.BytesForwarded(uint64(n))
	}
}

// udpEgress reads framed envelopes from the agent and replays them on
// the public socket toward the embedded peer address.
func udpEgress(conn net.Conn, udpConn *net.UDPConn, st *stats.Stats) error {
	for {
		env, err := wire.ReadEnvelope(conn)
		if err != nil {
			return err
		}
		n, err := udpConn.WriteToUDP(env.Data, env.Peer)
		if err != nil {
			return err
		}
		st.BytesForwarded(uint64(n))
	}
}
