package agent

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/fb0sh/gout/internal/pump"
	"github.com/fb0sh/gout/internal/wire"
)

// runTCP watches the control connection for NEW_CONN tokens and, for
// each one, dials both the rendezvous listener and the local upstream
// service, then pumps bytes between them. It returns when reading the
// control connection fails, which also happens when the relay tears
// the tunnel down.
func runTCP(conn net.Conn, relayHost string, dataPort, upstreamPort int, logger *slog.Logger) error {
	rendezvousAddr := fmt.Sprintf("%s:%d", relayHost, dataPort)
	upstreamAddr := fmt.Sprintf("127.0.0.1:%d", upstreamPort)

	var splitter wire.SignalSplitter
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}

		signals := splitter.Feed(buf[:n])
		for i := 0; i < signals; i++ {
			go handleNewConn(rendezvousAddr, upstreamAddr, logger)
		}
	}
}

func handleNewConn(rendezvousAddr, upstreamAddr string, logger *slog.Logger) {
	rendConn, err := net.Dial("tcp", rendezvousAddr)
	if err != nil {
		logger.Warn("rendezvous dial failed", "addr", rendezvousAddr, "err", err)
		return
	}

	upConn, err := net.Dial("tcp", upstreamAddr)
	if err != nil {
		logger.Warn("upstream dial failed", "addr", upstreamAddr, "err", err)
		rendConn.Close()
		return
	}

	res := pump.Run(rendConn, upConn)
	logger.Debug("tcp connection finished", "upstream", upstreamAddr, "ext_to_up", res.AToB, "up_to_ext", res.BToA)
}
