package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/fb0sh/gout/internal/helpers"
)

// Envelope header layout: 4-byte N | 4-byte IPv4 | 2-byte port.
const (
	envelopeHeaderSize = 4 + 4 + 2
	maxDatagramSize    = 65535
	maxEnvelopePayload = envelopeHeaderSize + maxDatagramSize
)

// Envelope is one decoded UDP frame carried over the control connection.
type Envelope struct {
	Peer *net.UDPAddr
	Data []byte
}

// EncodeEnvelope builds the full outer-framed wire representation of a
// UDP envelope: 4-byte big-endian outer length L, followed by the
// payload (4-byte N | 4-byte IPv4 | 2-byte port | N bytes data), where
// L = 10 + N.
func EncodeEnvelope(peer *net.UDPAddr, data []byte) ([]byte, error) {
	if peer == nil {
		return nil, fmt.Errorf("%w: nil peer", ErrProtocol)
	}
	ip4 := peer.IP.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: peer address is not IPv4: %s", ErrProtocol, peer.IP)
	}
	if len(data) > maxDatagramSize {
		return nil, fmt.Errorf("%w: datagram too large: %d bytes", ErrProtocol, len(data))
	}

	n := len(data)
	out := make([]byte, 4+envelopeHeaderSize+n)
	binary.BigEndian.PutUint32(out[0:4], uint32(envelopeHeaderSize+n))
	binary.BigEndian.PutUint32(out[4:8], uint32(n))
	copy(out[8:12], ip4)
	binary.BigEndian.PutUint16(out[12:14], helpers.ClampIntToUint16(peer.Port))
	copy(out[14:], data)
	return out, nil
}

// ReadEnvelope reads one full envelope from r, blocking until the outer
// length prefix and the complete payload have arrived. It tolerates any
// fragmentation of the underlying reads (down to one byte at a time)
// since io.ReadFull loops until each piece is complete.
//
// A mismatch between the inner length field and the outer frame size is
// a protocol error (ErrProtocol), fatal for the owning tunnel.
func ReadEnvelope(r io.Reader) (*Envelope, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	outerLen := binary.BigEndian.Uint32(lenBuf[:])
	if outerLen < envelopeHeaderSize || outerLen > maxEnvelopePayload {
		return nil, fmt.Errorf("%w: outer length %d out of bounds", ErrProtocol, outerLen)
	}

	payload := make([]byte, outerLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	innerLen := binary.BigEndian.Uint32(payload[0:4])
	if int(innerLen) != len(payload)-envelopeHeaderSize {
		return nil, fmt.Errorf("%w: inner length %d does not match frame", ErrProtocol, innerLen)
	}

	ip := net.IPv4(payload[4], payload[5], payload[6], payload[7])
	port := binary.BigEndian.Uint16(payload[8:10])
	data := make([]byte, innerLen)
	copy(data, payload[10:])

	return &Envelope{Peer: &net.UDPAddr{IP: ip, Port: int(port)}, Data: data}, nil
}
