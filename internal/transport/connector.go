package transport

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"filedrop/internal/config"
)

// Connector opens outbound connections. It never retries.
type Connector struct {
	address string
	timeout time.Duration
}

// NewConnector creates a connector for cfg.Address()
func NewConnector(cfg *config.Config) *Connector {
	return &Connector{
		address: cfg.Address(),
		timeout: cfg.Network.DialTimeout,
	}
}

// Dial connects to the configured address
func (c *Connector) Dial(ctx context.Context) (net.Conn, error) {
	return c.DialAddress(ctx, c.address)
}

// DialAddress connects to address. Failures are returned as a *TransferError of kind ErrNetwork.
func (c *Connector) DialAddress(ctx context.Context, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "DialAddress",
			"address":  address,
			"error":    err.Error(),
		}).Error("Failed to connect")
		return nil, newTransferError(PhaseConnect, 0, 0, ErrNetwork, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "DialAddress",
		"address":    address,
		"local_addr": conn.LocalAddr().String(),
	}).Debug("Connected")
	return conn, nil
}
