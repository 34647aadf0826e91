package agent

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fb0sh/gout/internal/wire"
)

func portString(port int) string {
	return strconv.Itoa(port)
}

// echoTCPUpstream starts a loopback TCP listener that echoes back
// whatever it reads, returning the port it's bound to.
func echoTCPUpstream(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				io.Copy(c, c)
			}(c)
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

func TestRunTCPDialsOnSignal(t *testing.T) {
	upstreamPort := echoTCPUpstream(t)

	rendLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer rendLn.Close()
	rendPort := rendLn.Addr().(*net.TCPAddr).Port

	controlServer, controlAgent := net.Pipe()
	defer controlServer.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- runTCP(controlAgent, "127.0.0.1", rendPort, upstreamPort, newTestLogger()) }()

	// Simulate the relay writing NEW_CONN one byte at a time.
	go func() {
		for _, b := range []byte(wire.NewConnLine) {
			controlServer.Write([]byte{b})
		}
	}()

	extConn, err := rendLn.Accept()
	require.NoError(t, err)
	defer extConn.Close()

	_, err = extConn.Write([]byte("hello"))
	require.NoError(t, err)

	r := bufio.NewReader(extConn)
	buf := make([]byte, 5)
	extConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))

	controlServer.Close()
	<-errCh
}
