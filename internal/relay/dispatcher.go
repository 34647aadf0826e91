package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/fb0sh/gout/internal/stats"
	"github.com/fb0sh/gout/internal/wire"
)

// Config carries the relay-side settings the dispatcher and its engines
// need; it is a narrowed view of config.RelayConfig so this package
// doesn't import the config package directly.
type Config struct {
	VerifyPassword string
	ReturnIP       string
	MinPort        int
	MaxPort        int
	// MaxConnections caps concurrently active tunnels. Zero means
	// unlimited.
	MaxConnections int
}

// Dispatcher accepts agent control connections, authenticates them, and
// routes each to the TCP or UDP tunnel engine.
type Dispatcher struct {
	Config   Config
	Logger   *slog.Logger
	Recorder EventRecorder
	Stats    *stats.Stats

	alloc PortAllocator
}

// NewDispatcher builds a Dispatcher ready to Serve.
func NewDispatcher(cfg Config, logger *slog.Logger, recorder EventRecorder) *Dispatcher {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Dispatcher{
		Config:   cfg,
		Logger:   logger,
		Recorder: recorder,
		Stats:    stats.New(),
		alloc:    PortAllocator{Min: cfg.MinPort, Max: cfg.MaxPort},
	}
}

// Serve runs the accept loop on ln until it closes or ctx is cancelled.
// A transient per-connection error never stops the loop.
func (d *Dispatcher) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			d.Logger.Error("control accept error", "err", err)
			continue
		}
		go d.handleControl(ctx, conn)
	}
}

// handleControl reads one handshake, authorizes it, and dispatches to
// the matching tunnel engine. It owns conn for the lifetime of the
// tunnel and closes it on return.
func (d *Dispatcher) handleControl(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	req, err := wire.ReadHandshakeRequest(conn)
	if err != nil {
		d.Logger.Warn("handshake read failed", "remote", conn.RemoteAddr(), "err", err)
		d.Recorder.RecordEvent("handshake_error", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		d.Logger.Warn("handshake invalid", "remote", conn.RemoteAddr(), "err", err)
		d.Recorder.RecordEvent("handshake_error", err.Error())
		return
	}
	if req.Password != d.Config.VerifyPassword {
		authErr := fmt.Errorf("%w: remote %s", wire.ErrAuthFailed, conn.RemoteAddr())
		d.Logger.Warn("handshake auth failed", "err", authErr)
		d.Recorder.RecordEvent("auth_failed", conn.RemoteAddr().String())
		d.Stats.AuthFailure()
		return
	}

	if d.Config.MaxConnections > 0 && d.Stats.Snapshot().TunnelsActive >= int64(d.Config.MaxConnections) {
		d.Logger.Warn("tunnel rejected: relay at capacity", "remote", conn.RemoteAddr(), "max_connections", d.Config.MaxConnections)
		d.Recorder.RecordEvent("rejected_at_capacity", conn.RemoteAddr().String())
		return
	}

	d.Logger.Info("agent registered", "remote", conn.RemoteAddr(), "protocol", req.Protocol, "upstream_port", req.Port)
	d.Recorder.RecordEvent("registered", string(req.Protocol))
	d.Stats.TunnelOpened()
	defer d.Stats.TunnelClosed()

	var serveErr error
	switch req.Protocol {
	case wire.ProtocolTCP:
		serveErr = serveTCP(ctx, conn, req, d.alloc, d.Config.ReturnIP, d.Logger, d.Stats)
	case wire.ProtocolUDP:
		serveErr = serveUDP(ctx, conn, req, d.alloc, d.Config.ReturnIP, d.Logger, d.Stats)
	default:
		d.Logger.Warn("unknown protocol", "protocol", req.Protocol)
		return
	}

	if serveErr != nil {
		d.Logger.Info("tunnel closed", "remote", conn.RemoteAddr(), "protocol", req.Protocol, "err", serveErr)
		if errors.Is(serveErr, wire.ErrProtocol) {
			d.Stats.ProtocolError()
			d.Recorder.RecordEvent("protocol_error", serveErr.Error())
		}
	} else {
		d.Logger.Info("tunnel closed", "remote", conn.RemoteAddr(), "protocol", req.Protocol)
	}
	d.Recorder.RecordEvent("tunnel_closed", string(req.Protocol))
}
