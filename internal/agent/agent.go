package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/fb0sh/gout/internal/wire"
)

// Config is what the agent needs to register one tunnel with a relay.
type Config struct {
	RelayHost    string
	RelayPort    int
	Password     string
	Protocol     wire.Protocol
	UpstreamPort int

	// OnRegistered, if set, is called once with the relay's handshake
	// response as soon as the tunnel is registered and before the agent
	// starts servicing it. Mainly useful for tests and diagnostics.
	OnRegistered func(*wire.HandshakeResponse)
}

// Run dials the relay, performs the handshake, and services the tunnel
// until the control connection closes, a fatal protocol error occurs,
// or ctx is cancelled. On cancellation it closes the control
// connection to unblock any in-flight read and returns nil, so a
// SIGINT-driven shutdown exits cleanly rather than surfacing the
// resulting "use of closed connection" as an error.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	addr := fmt.Sprintf("%s:%d", cfg.RelayHost, cfg.RelayPort)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("agent: dial relay %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	req := &wire.HandshakeRequest{Protocol: cfg.Protocol, Port: cfg.UpstreamPort, Password: cfg.Password}
	if err := wire.WriteHandshakeRequest(conn, req); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("agent: write handshake: %w", err)
	}

	resp, err := wire.ReadHandshakeResponse(conn)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("agent: read handshake response: %w", err)
	}

	logger.Info("registered with relay", "relay_ip", resp.IP, "public_port", resp.Port, "protocol", cfg.Protocol)
	if cfg.OnRegistered != nil {
		cfg.OnRegistered(resp)
	}

	switch cfg.Protocol {
	case wire.ProtocolTCP:
		err = runTCP(conn, cfg.RelayHost, resp.DataPort, cfg.UpstreamPort, logger)
	case wire.ProtocolUDP:
		err = runUDP(conn, cfg.UpstreamPort, logger)
	default:
		return fmt.Errorf("agent: unsupported protocol %q", cfg.Protocol)
	}

	if ctx.Err() != nil {
		return nil
	}
	return err
}
