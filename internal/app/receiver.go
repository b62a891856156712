package app

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"

	"filedrop/internal/config"
	"filedrop/internal/processor"
	"filedrop/internal/reporter"
	"filedrop/internal/transport"
)

// ReceiverOptions configures the receiver application behavior
type ReceiverOptions struct {
	StorageDir string                     // defaults to the configured storage directory
	Observer   transport.ProgressObserver // optional, receives every session's updates
}

// ReceiverApp serves incoming transfers until its context is cancelled
type ReceiverApp struct {
	config *config.Config
}

// NewReceiverApp creates a new receiver application
func NewReceiverApp(cfg *config.Config) *ReceiverApp {
	return &ReceiverApp{config: cfg}
}

// Run binds the configured address and receives files into the storage directory
func (r *ReceiverApp) Run(ctx context.Context, opts *ReceiverOptions) error {
	listener, err := r.newListener(opts)
	if err != nil {
		return err
	}
	return listener.ListenAndServe(ctx)
}

// Serve receives files from connections accepted on ln
func (r *ReceiverApp) Serve(ctx context.Context, ln net.Listener, opts *ReceiverOptions) error {
	listener, err := r.newListener(opts)
	if err != nil {
		return err
	}
	return listener.Serve(ctx, ln)
}

func (r *ReceiverApp) newListener(opts *ReceiverOptions) (*transport.Listener, error) {
	if opts == nil {
		opts = &ReceiverOptions{}
	}
	dir := r.config.Transfer.StorageDir
	if opts.StorageDir != "" {
		dir = opts.StorageDir
	}

	store, err := processor.NewStore(dir)
	if err != nil {
		return nil, transport.PreflightError(err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "ReceiverApp",
		"storage_dir": store.Dir(),
		"address":     r.config.Address(),
	}).Info("Preparing to receive files")

	receiver := transport.NewReceiver(r.config, store)
	handler := transport.ConnHandlerFunc(func(ctx context.Context, conn net.Conn) {
		log := logrus.WithField("remote_addr", conn.RemoteAddr().String())
		observer := transport.MultiObserver{reporter.NewProgressReporter(log, reporter.DefaultStep), opts.Observer}
		result, err := receiver.Receive(ctx, conn, observer)
		if err != nil {
			log.WithError(err).Error("Transfer failed")
			return
		}
		log.WithFields(logrus.Fields{
			"session_id": result.SessionID,
			"dest_path":  result.Path,
			"bytes":      result.Transferred,
		}).Info("Transfer complete")
	})

	return transport.NewListener(r.config, handler), nil
}
