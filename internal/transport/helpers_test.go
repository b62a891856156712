package transport

import (
	"context"
	"crypto/rand"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"filedrop/internal/config"
	"filedrop/internal/processor"
	"filedrop/pkg/types"
)

const testTimeout = 10 * time.Second

// testConfig returns a config bound to an ephemeral loopback port
func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Network.Port = 0
	cfg.Network.DialTimeout = 2 * time.Second
	return cfg
}

// progressRecorder collects updates from a transfer loop
type progressRecorder struct {
	mu      sync.Mutex
	updates []types.ProgressUpdate
}

func (r *progressRecorder) OnProgress(update types.ProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
}

func (r *progressRecorder) snapshot() []types.ProgressUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.ProgressUpdate(nil), r.updates...)
}

type outcome struct {
	result *Result
	err    error
}

func waitOutcome(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for transfer outcome")
		return outcome{}
	}
}

// tcpPair returns both ends of a loopback TCP connection
func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	server, ok := <-accepted
	require.True(t, ok, "accept failed")

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func newTestStore(t *testing.T) *processor.Store {
	t.Helper()
	store, err := processor.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}

// startReceiverListener serves receiver sessions on a loopback port and
// publishes every session outcome
func startReceiverListener(t *testing.T, cfg *config.Config, receiver *Receiver, observer ProgressObserver) (string, <-chan outcome) {
	t.Helper()

	results := make(chan outcome, 8)
	handler := ConnHandlerFunc(func(ctx context.Context, conn net.Conn) {
		res, err := receiver.Receive(ctx, conn, observer)
		results <- outcome{result: res, err: err}
	})

	return startListener(t, cfg, handler), results
}

func startListener(t *testing.T, cfg *config.Config, handler ConnHandler) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	listener := NewListener(cfg, handler)

	done := make(chan error, 1)
	go func() { done <- listener.ListenAndServe(ctx) }()

	select {
	case <-listener.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("listener failed to start: %v", err)
	case <-time.After(testTimeout):
		cancel()
		t.Fatal("listener did not become ready")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(testTimeout):
			t.Error("listener did not stop")
		}
	})

	return listener.Addr().String()
}

func sendFile(t *testing.T, cfg *config.Config, addr, path string, observer ProgressObserver) (*Result, error) {
	t.Helper()

	src, err := processor.OpenSource(path)
	require.NoError(t, err)

	conn, err := NewConnector(cfg).DialAddress(context.Background(), addr)
	if err != nil {
		src.Close()
		return nil, err
	}
	return NewSender(cfg).Send(context.Background(), conn, src, observer)
}
