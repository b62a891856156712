package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"filedrop/internal/config"
)

const envPrefix = "FILEDROP"

var (
	cfg     *config.Config
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "filedrop",
	Short: "filedrop - send a file to another machine over TCP",
	Long: `filedrop moves single files between two machines over a plain TCP connection.

One side runs a receiver that listens on a port and stores every incoming file
in its storage directory. The other side connects and sends one file per
connection, with live progress on both ends.

Usage:
  Receive files:  filedrop serve --dir ./downloads
  Send a file:    filedrop send --host 192.168.1.20 report.pdf
  Send many:      filedrop send   (prompts for paths until 'quit')`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initConfig()

		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = loaded
		cfg.ConfigureLogging()
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.filedrop.yaml)")
	flags.String("host", "", "receiver host to bind or connect to")
	flags.Int("port", 0, "receiver TCP port")
	flags.Int("buffer-size", 0, "chunk size in bytes for payload I/O")
	flags.Bool("ack", true, "exchange a completion acknowledgement after the payload")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text or json)")

	viper.BindPFlag("network.host", flags.Lookup("host"))
	viper.BindPFlag("network.port", flags.Lookup("port"))
	viper.BindPFlag("transfer.buffer_size", flags.Lookup("buffer-size"))
	viper.BindPFlag("transfer.ack", flags.Lookup("ack"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))

	// Set up viper environment variable support
	config.BindEnv(viper.GetViper(), envPrefix)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			logrus.WithError(err).Warn("Could not find home directory")
			return
		}

		// Search config in home directory with name ".filedrop" (without extension)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".filedrop")
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("Using config file")
	} else if cfgFile != "" {
		logrus.WithError(err).Warn("Could not read config file")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// createContext creates a context that cancels on interrupt signals
func createContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
