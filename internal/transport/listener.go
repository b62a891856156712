package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"filedrop/internal/config"
)

// ConnHandler serves one accepted connection. It owns conn and must close it.
type ConnHandler interface {
	HandleConn(ctx context.Context, conn net.Conn)
}

// ConnHandlerFunc adapts a function to ConnHandler
type ConnHandlerFunc func(ctx context.Context, conn net.Conn)

// HandleConn calls f(ctx, conn)
func (f ConnHandlerFunc) HandleConn(ctx context.Context, conn net.Conn) { f(ctx, conn) }

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Listener accepts connections on one address and dispatches each to a handler.
// With MaxConcurrent 1 connections are handled strictly one after another.
type Listener struct {
	address       string
	maxConcurrent int
	handler       ConnHandler

	mu    sync.Mutex
	ln    net.Listener
	ready chan struct{}
}

// NewListener creates a listener for cfg.Address()
func NewListener(cfg *config.Config, handler ConnHandler) *Listener {
	return &Listener{
		address:       cfg.Address(),
		maxConcurrent: cfg.Network.MaxConcurrent,
		handler:       handler,
		ready:         make(chan struct{}),
	}
}

// ListenAndServe binds the address and serves until ctx is cancelled.
// A bind failure is returned as a *TransferError of kind ErrNetwork.
func (l *Listener) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.address)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ListenAndServe",
			"address":  l.address,
			"error":    err.Error(),
		}).Error("Failed to bind listener")
		return newTransferError(PhaseConnect, 0, 0, ErrNetwork, err)
	}
	return l.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is cancelled, then waits for
// in-flight sessions. A failing session never stops the loop.
func (l *Listener) Serve(ctx context.Context, ln net.Listener) error {
	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()
	close(l.ready)

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	logrus.WithFields(logrus.Fields{
		"function":       "Serve",
		"address":        ln.Addr().String(),
		"max_concurrent": l.maxConcurrent,
	}).Info("Listening for incoming transfers")

	g := new(errgroup.Group)
	g.SetLimit(l.maxConcurrent)

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				_ = g.Wait()
				logrus.WithField("address", ln.Addr().String()).Info("Listener stopped")
				return nil
			}

			if backoff == 0 {
				backoff = minAcceptBackoff
			} else {
				backoff *= 2
			}
			if backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			logrus.WithFields(logrus.Fields{
				"function": "Serve",
				"error":    err.Error(),
				"retry_in": backoff,
			}).Warn("Accept failed")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}
		backoff = 0

		logrus.WithField("remote_addr", conn.RemoteAddr().String()).Info("Connection accepted")
		g.Go(func() error {
			l.dispatch(ctx, conn)
			return nil
		})
	}
}

// dispatch isolates one session so a panic cannot take the listener down
func (l *Listener) dispatch(ctx context.Context, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "dispatch",
				"remote_addr": conn.RemoteAddr().String(),
				"panic":       r,
			}).Error("Connection handler panicked")
			_ = conn.Close()
		}
	}()
	l.handler.HandleConn(ctx, conn)
}

// Ready is closed once the listener is bound
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// Addr returns the bound address, or nil before Ready
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}
