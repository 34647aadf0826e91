// Package stats collects process-wide tunnel counters for the relay's
// management API.
package stats

import "sync/atomic"

// Stats collects tunnel and traffic counters. All methods are safe for
// concurrent use.
type Stats struct {
	tunnelsActive  atomic.Int64
	tunnelsTotal   atomic.Uint64
	tcpConnsTotal  atomic.Uint64
	udpPeersTotal  atomic.Uint64
	bytesForwarded atomic.Uint64
	authFailures   atomic.Uint64
	protocolErrors atomic.Uint64
}

// New creates an empty counter set.
func New() *Stats {
	return &Stats{}
}

// TunnelOpened records a newly registered tunnel.
func (s *Stats) TunnelOpened() {
	s.tunnelsActive.Add(1)
	s.tunnelsTotal.Add(1)
}

// TunnelClosed records a tunnel's teardown.
func (s *Stats) TunnelClosed() {
	s.tunnelsActive.Add(-1)
}

// TCPConnection records one paired external/rendezvous connection.
func (s *Stats) TCPConnection() {
	s.tcpConnsTotal.Add(1)
}

// UDPPeer records a newly seen external UDP peer.
func (s *Stats) UDPPeer() {
	s.udpPeersTotal.Add(1)
}

// BytesForwarded accumulates payload bytes moved in either direction.
func (s *Stats) BytesForwarded(n uint64) {
	s.bytesForwarded.Add(n)
}

// AuthFailure records a handshake password mismatch.
func (s *Stats) AuthFailure() {
	s.authFailures.Add(1)
}

// ProtocolError records a malformed UDP envelope or handshake.
func (s *Stats) ProtocolError() {
	s.protocolErrors.Add(1)
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	TunnelsActive  int64  `json:"tunnels_active"`
	TunnelsTotal   uint64 `json:"tunnels_total"`
	TCPConnsTotal  uint64 `json:"tcp_conns_total"`
	UDPPeersTotal  uint64 `json:"udp_peers_total"`
	BytesForwarded uint64 `json:"bytes_forwarded"`
	AuthFailures   uint64 `json:"auth_failures"`
	ProtocolErrors uint64 `json:"protocol_errors"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		TunnelsActive:  s.tunnelsActive.Load(),
		TunnelsTotal:   s.tunnelsTotal.Load(),
		TCPConnsTotal:  s.tcpConnsTotal.Load(),
		UDPPeersTotal:  s.udpPeersTotal.Load(),
		BytesForwarded: s.bytesForwarded.Load(),
		AuthFailures:   s.authFailures.Load(),
		ProtocolErrors: s.protocolErrors.Load(),
	}
}
