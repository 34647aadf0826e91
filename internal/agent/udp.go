package agent

import (
	"log/slog"
	"net"

	"github.com/fb0sh/gout/internal/wire"
)

// runUDP reads framed envelopes from the control connection and
// forwards each to the session table, which dials upstream and streams
// replies back over the same connection.
func runUDP(conn net.Conn, upstreamPort int, logger *slog.Logger) error {
	sw := wire.NewSafeWriter(conn)
	table := NewSessionTable(upstreamPort, sw, logger)
	defer table.Close()

	for {
		env, err := wire.ReadEnvelope(conn)
		if err != nil {
			return err
		}
		if err := table.Forward(env.Peer, env.Data); err != nil {
			logger.Warn("forward to upstream failed", "peer", env.Peer, "err", err)
		}
	}
}
