package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"filedrop/internal/config"
	"filedrop/internal/processor"
	"filedrop/internal/protocol"
	"filedrop/internal/transport"
)

// SenderOptions configures one send
type SenderOptions struct {
	FilePath string // Required: path to file to send
	Address  string // host:port of the receiver, defaults to the configured address
}

// SenderApp sends one file per call over a fresh connection
type SenderApp struct {
	config    *config.Config
	connector *transport.Connector
	sender    *transport.Sender
}

// NewSenderApp creates a new sender application
func NewSenderApp(cfg *config.Config) *SenderApp {
	return &SenderApp{
		config:    cfg,
		connector: transport.NewConnector(cfg),
		sender:    transport.NewSender(cfg),
	}
}

// SendFile validates the file, connects and transfers it. Any validation
// failure is reported before the network is touched.
func (s *SenderApp) SendFile(ctx context.Context, opts *SenderOptions, observer transport.ProgressObserver) (*transport.Result, error) {
	if opts.FilePath == "" {
		return nil, transport.PreflightError(fmt.Errorf("file path is required"))
	}

	src, err := processor.OpenSource(opts.FilePath)
	if err != nil {
		return nil, transport.PreflightError(err)
	}
	if _, err := protocol.EncodeMetadata(src.Metadata()); err != nil {
		src.Close()
		return nil, transport.PreflightError(err)
	}

	address := opts.Address
	if address == "" {
		address = s.config.Address()
	}

	logrus.WithFields(logrus.Fields{
		"function": "SendFile",
		"path":     opts.FilePath,
		"address":  address,
	}).Info("Preparing to send file")

	conn, err := s.connector.DialAddress(ctx, address)
	if err != nil {
		src.Close()
		return nil, err
	}

	return s.sender.Send(ctx, conn, src, observer)
}
