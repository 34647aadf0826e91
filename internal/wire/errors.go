package wire

import "errors"

// Sentinel errors classifying the failure kinds callers see on the wire,
// so they can decide with errors.Is whether to tear down one connection
// or the whole tunnel.
var (
	// ErrAuthFailed is returned when the handshake password does not match.
	ErrAuthFailed = errors.New("wire: password mismatch")
	// ErrNoFreePort is returned when no port inside the configured range
	// could be allocated for a new tunnel.
	ErrNoFreePort = errors.New("wire: no free port in configured range")
	// ErrHandshake is returned when a handshake message is malformed or
	// has an unexpected shape.
	ErrHandshake = errors.New("wire: invalid handshake")
	// ErrProtocol is returned on a malformed UDP envelope; fatal for the
	// owning tunnel.
	ErrProtocol = errors.New("wire: protocol violation")
)
