package relay

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fb0sh/gout/internal/stats"
	"github.com/fb0sh/gout/internal/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitForLine reads from r until it has consumed exactly wire.NewConnLine,
// tolerating arbitrary fragmentation the way the real agent does.
func waitForLine(t *testing.T, r *bufio.Reader) {
	t.Helper()
	var splitter wire.SignalSplitter
	for {
		b, err := r.ReadByte()
		require.NoError(t, err)
		if splitter.Feed([]byte{b}) > 0 {
			return
		}
	}
}

func TestServeTCPEcho(t *testing.T) {
	serverConn, agentConn := net.Pipe()
	defer agentConn.Close()

	req := &wire.HandshakeRequest{Protocol: wire.ProtocolTCP, Port: 9000, Password: "p"}
	alloc := PortAllocator{Min: 1024, Max: 65535}
	st := stats.New()

	done := make(chan error, 1)
	go func() { done <- serveTCP(context.Background(), serverConn, req, alloc, "203.0.113.9", testLogger(), st) }()

	resp, err := wire.ReadHandshakeResponse(agentConn)
	require.NoError(t, err)
	require.Equal(t, "203.0.113.9", resp.IP)
	require.NotZero(t, resp.Port)
	require.NotZero(t, resp.DataPort)

	agentReader := bufio.NewReader(agentConn)

	extConn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(resp.Port)))
	require.NoError(t, err)
	defer extConn.Close()

	_, err = extConn.Write([]byte("hello"))
	require.NoError(t, err)

	waitForLine(t, agentReader)

	rendConn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(resp.DataPort)))
	require.NoError(t, err)
	defer rendConn.Close()

	buf := make([]byte, 5)
	rendConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = io.ReadFull(rendConn, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))

	_, err = rendConn.Write(buf)
	require.NoError(t, err)

	extConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = io.ReadFull(extConn, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))

	extConn.Close()
	agentConn.Close()
	<-done
}

func TestServeTCPPairingUnderBurst(t *testing.T) {
	serverConn, agentConn := net.Pipe()
	defer agentConn.Close()

	req := &wire.HandshakeRequest{Protocol: wire.ProtocolTCP, Port: 9001, Password: "p"}
	alloc := PortAllocator{Min: 1024, Max: 65535}

	done := make(chan error, 1)
	go func() { done <- serveTCP(context.Background(), serverConn, req, alloc, "203.0.113.9", testLogger(), stats.New()) }()

	resp, err := wire.ReadHandshakeResponse(agentConn)
	require.NoError(t, err)
	agentReader := bufio.NewReader(agentConn)

	const n = 3
	payloads := []string{"one", "two", "three"}
	extConns := make([]net.Conn, n)
	for i := range n {
		c, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(resp.Port)))
		require.NoError(t, err)
		extConns[i] = c
		_, err = c.Write([]byte(payloads[i]))
		require.NoError(t, err)
	}

	for i := range n {
		waitForLine(t, agentReader)

		rendConn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(resp.DataPort)))
		require.NoError(t, err)

		buf := make([]byte, len(payloads[i]))
		rendConn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, err = io.ReadFull(rendConn, buf)
		require.NoError(t, err)
		require.Equal(t, payloads[i], string(buf), "pairing %d must not cross talk", i)

		extConns[i].Close()
		rendConn.Close()
	}

	agentConn.Close()
	<-done
}
