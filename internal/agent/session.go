// Package agent implements the client side of a gout tunnel: the
// control connection setup, the TCP rendezvous dial loop, and the UDP
// session table that talks to the local upstream service.
package agent

import (
	"log/slog"
	"net"
	"sync"

	"github.com/fb0sh/gout/internal/pool"
	"github.com/fb0sh/gout/internal/wire"
)

const maxDatagramSize = 65535

// recvBufferPool reduces allocations across session receive loops.
var recvBufferPool = pool.New(func() *[]byte {
	buf := make([]byte, maxDatagramSize)
	return &buf
})

// session is one external peer's upstream UDP socket.
type session struct {
	peer *net.UDPAddr
	conn *net.UDPConn
}

// SessionTable maps external peers to ephemeral upstream sockets,
// lazily creating one per peer and routing upstream replies back over
// the shared control connection writer.
type SessionTable struct {
	upstreamAddr *net.UDPAddr
	writer       *wire.SafeWriter
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionTable builds a table that forwards datagrams to upstreamPort
// on loopback and frames replies through writer.
func NewSessionTable(upstreamPort int, writer *wire.SafeWriter, logger *slog.Logger) *SessionTable {
	return &SessionTable{
		upstreamAddr: &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: upstreamPort},
		writer:       writer,
		logger:       logger,
		sessions:     make(map[string]*session),
	}
}

// Forward sends datagram to the upstream service on behalf of peer,
// creating a fresh ephemeral socket and receive loop on first contact
// from that peer.
func (t *SessionTable) Forward(peer *net.UDPAddr, datagram []byte) error {
	s, err := t.sessionFor(peer)
	if err != nil {
		return err
	}
	_, err = s.conn.Write(datagram)
	return err
}

func (t *SessionTable) sessionFor(peer *net.UDPAddr) (*session, error) {
	key := peer.String()

	t.mu.Lock()
	if s, ok := t.sessions[key]; ok {
		t.mu.Unlock()
		return s, nil
	}
	t.mu.Unlock()

	// DialUDP connects the ephemeral socket to the upstream address so
	// the kernel filters out anything not actually from upstream.
	conn, err := net.DialUDP("udp", nil, t.upstreamAddr)
	if err != nil {
		return nil, err
	}
	s := &session{peer: peer, conn: conn}

	t.mu.Lock()
	if existing, ok := t.sessions[key]; ok {
		t.mu.Unlock()
		conn.Close()
		return existing, nil
	}
	t.sessions[key] = s
	t.mu.Unlock()

	go t.receiveLoop(key, s)
	return s, nil
}

// receiveLoop reads upstream replies for one peer's session until the
// socket errors, encoding and writing each reply as a framed envelope.
func (t *SessionTable) receiveLoop(key string, s *session) {
	defer func() {
		t.mu.Lock()
		delete(t.sessions, key)
		t.mu.Unlock()
		s.conn.Close()
	}()

	bufPtr := recvBufferPool.Get()
	defer recvBufferPool.Put(bufPtr)
	buf := *bufPtr

	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			return
		}

		frame, err := wire.EncodeEnvelope(s.peer, buf[:n])
		if err != nil {
			t.logger.Warn("dropping oversized upstream reply", "peer", s.peer, "err", err)
			continue
		}
		if _, err := t.writer.Write(frame); err != nil {
			t.logger.Warn("control connection write failed", "peer", s.peer, "err", err)
			return
		}
	}
}

// Close tears down every open session.
func (t *SessionTable) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, s := range t.sessions {
		s.conn.Close()
		delete(t.sessions, key)
	}
}
