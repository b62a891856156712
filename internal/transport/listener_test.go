package transport

import (
	"context"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedrop/internal/protocol"
)

func TestListenerSurvivesFailedSession(t *testing.T) {
	cfg := testConfig()
	store := newTestStore(t)
	addr, results := startReceiverListener(t, cfg, NewReceiver(cfg, store), nil)

	// A peer that sends half a header and disconnects
	bad, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = bad.Write([]byte{0x00})
	require.NoError(t, err)
	require.NoError(t, bad.Close())

	first := waitOutcome(t, results)
	assert.ErrorIs(t, first.err, protocol.ErrProtocol)

	_, err = sendFile(t, cfg, addr, writeTempFile(t, "after.txt", []byte("still serving")), nil)
	require.NoError(t, err)

	second := waitOutcome(t, results)
	require.NoError(t, second.err)
	got, err := os.ReadFile(second.result.Path)
	require.NoError(t, err)
	assert.Equal(t, "still serving", string(got))
}

func TestListenerRecoversFromHandlerPanic(t *testing.T) {
	cfg := testConfig()
	var calls atomic.Int32
	served := make(chan struct{}, 1)

	handler := ConnHandlerFunc(func(ctx context.Context, conn net.Conn) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		conn.Close()
		served <- struct{}{}
	})
	addr := startListener(t, cfg, handler)

	for i := 0; i < 2; i++ {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		conn.Close()
	}

	select {
	case <-served:
	case <-time.After(testTimeout):
		t.Fatal("listener stopped serving after a panic")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestListenerSerialByDefault(t *testing.T) {
	cfg := testConfig()
	var active, peak atomic.Int32
	release := make(chan struct{})
	finished := make(chan struct{}, 3)

	handler := ConnHandlerFunc(func(ctx context.Context, conn net.Conn) {
		defer conn.Close()
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		active.Add(-1)
		finished <- struct{}{}
	})
	addr := startListener(t, cfg, handler)

	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	for i := 0; i < 3; i++ {
		select {
		case <-finished:
		case <-time.After(testTimeout):
			t.Fatal("session did not finish")
		}
	}
	assert.Equal(t, int32(1), peak.Load())
}

func TestListenerConcurrentSessions(t *testing.T) {
	cfg := testConfig()
	cfg.Network.MaxConcurrent = 3
	var active atomic.Int32
	allIn := make(chan struct{})
	release := make(chan struct{})

	handler := ConnHandlerFunc(func(ctx context.Context, conn net.Conn) {
		defer conn.Close()
		if active.Add(1) == 3 {
			close(allIn)
		}
		<-release
	})
	addr := startListener(t, cfg, handler)
	defer close(release)

	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()
	}

	select {
	case <-allIn:
	case <-time.After(testTimeout):
		t.Fatalf("only %d sessions ran concurrently", active.Load())
	}
}

func TestListenerBindInUse(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	cfg := testConfig()
	cfg.Network.Port = occupied.Addr().(*net.TCPAddr).Port

	err = NewListener(cfg, ConnHandlerFunc(func(context.Context, net.Conn) {})).ListenAndServe(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)

	phase, ok := PhaseOf(err)
	require.True(t, ok)
	assert.Equal(t, PhaseConnect, phase)
}

func TestConnectorRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := testConfig()
	cfg.Network.Port = port

	conn, err := NewConnector(cfg).Dial(context.Background())
	assert.Nil(t, conn)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Contains(t, err.Error(), strconv.Itoa(port))
}
