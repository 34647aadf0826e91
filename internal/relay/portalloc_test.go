package relay

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortAllocatorWithinRange(t *testing.T) {
	alloc := PortAllocator{Min: 1024, Max: 65535}
	port, err := alloc.Allocate()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, alloc.Min)
	assert.LessOrEqual(t, port, alloc.Max)
}

func TestPortAllocatorRejectsOutOfRange(t *testing.T) {
	alloc := PortAllocator{Min: 1, Max: 1}
	_, err := alloc.Allocate()
	assert.Error(t, err)
}

func TestListenReuseAddrRebindsAfterClose(t *testing.T) {
	ctx := context.Background()
	ln, err := listenReuseAddr(ctx, "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ln2, err := listenReuseAddr(ctx, "tcp", addr)
	require.NoError(t, err)
	defer ln2.Close()
	assert.Equal(t, addr, ln2.Addr().String())
}

func TestListenPacketReuseAddr(t *testing.T) {
	ctx := context.Background()
	pc, err := listenPacketReuseAddr(ctx, "udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()
	_, ok := pc.LocalAddr().(*net.UDPAddr)
	assert.True(t, ok)
}
