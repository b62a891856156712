package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	ErrInvalidHost          = errors.New("host must be set")
	ErrInvalidPort          = errors.New("port must be between 1 and 65535")
	ErrInvalidBufferSize    = errors.New("buffer size must be between 1 and 1 MiB")
	ErrInvalidConcurrency   = errors.New("max concurrent sessions must be at least 1")
	ErrInvalidTimeout       = errors.New("timeouts must not be negative")
	ErrInvalidLogFormat     = errors.New("log format must be text or json")
	ErrInvalidLogLevel      = errors.New("unknown log level")
	ErrInvalidStorageConfig = errors.New("storage directory must be set")
)

// MaxBufferSize caps the chunk size so a single session cannot pin large buffers
const MaxBufferSize = 1 << 20

// Config holds all application configuration
type Config struct {
	Network  NetworkConfig  `json:"network"`
	Transfer TransferConfig `json:"transfer"`
	Log      LogConfig      `json:"log"`
}

// NetworkConfig holds listener and connector settings
type NetworkConfig struct {
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	DialTimeout   time.Duration `json:"dial_timeout"`
	MaxConcurrent int           `json:"max_concurrent"`
}

// TransferConfig holds settings shared by sender and receiver sessions
type TransferConfig struct {
	BufferSize  int           `json:"buffer_size"`
	StorageDir  string        `json:"storage_dir"`
	Ack         bool          `json:"ack"`
	KeepPartial bool          `json:"keep_partial"`
	IOTimeout   time.Duration `json:"io_timeout"` // 0 disables the idle deadline
}

// LogConfig holds logrus settings
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{
			Host:          "127.0.0.1",
			Port:          5001,
			DialTimeout:   10 * time.Second,
			MaxConcurrent: 1, // serial accept -> transfer -> accept
		},
		Transfer: TransferConfig{
			BufferSize:  1024, // 1 KB chunks
			StorageDir:  ".",
			Ack:         true,
			KeepPartial: false,
			IOTimeout:   0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers every key with v so environment variables resolve
// even when no config file is present
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("network.host", d.Network.Host)
	v.SetDefault("network.port", d.Network.Port)
	v.SetDefault("network.dial_timeout", d.Network.DialTimeout)
	v.SetDefault("network.max_concurrent", d.Network.MaxConcurrent)
	v.SetDefault("transfer.buffer_size", d.Transfer.BufferSize)
	v.SetDefault("transfer.storage_dir", d.Transfer.StorageDir)
	v.SetDefault("transfer.ack", d.Transfer.Ack)
	v.SetDefault("transfer.keep_partial", d.Transfer.KeepPartial)
	v.SetDefault("transfer.io_timeout", d.Transfer.IOTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// BindEnv maps the short FILEDROP_* variable names onto the nested keys
func BindEnv(v *viper.Viper, prefix string) {
	bindings := map[string]string{
		"network.host":           "HOST",
		"network.port":           "PORT",
		"network.dial_timeout":   "DIAL_TIMEOUT",
		"network.max_concurrent": "MAX_CONCURRENT",
		"transfer.buffer_size":   "BUFFER_SIZE",
		"transfer.storage_dir":   "STORAGE_DIR",
		"transfer.ack":           "ACK",
		"transfer.keep_partial":  "KEEP_PARTIAL",
		"transfer.io_timeout":    "IO_TIMEOUT",
		"log.level":              "LOG_LEVEL",
		"log.format":             "LOG_FORMAT",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, prefix+"_"+env)
	}
}

// Load builds a Config from v. Missing keys fall back to NewDefaultConfig.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Network: NetworkConfig{
			Host:          v.GetString("network.host"),
			Port:          v.GetInt("network.port"),
			DialTimeout:   v.GetDuration("network.dial_timeout"),
			MaxConcurrent: v.GetInt("network.max_concurrent"),
		},
		Transfer: TransferConfig{
			BufferSize:  v.GetInt("transfer.buffer_size"),
			StorageDir:  v.GetString("transfer.storage_dir"),
			Ack:         v.GetBool("transfer.ack"),
			KeepPartial: v.GetBool("transfer.keep_partial"),
			IOTimeout:   v.GetDuration("transfer.io_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if c.Network.Host == "" {
		return ErrInvalidHost
	}
	if c.Network.Port <= 0 || c.Network.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Network.MaxConcurrent < 1 {
		return ErrInvalidConcurrency
	}
	if c.Network.DialTimeout < 0 || c.Transfer.IOTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.Transfer.BufferSize <= 0 || c.Transfer.BufferSize > MaxBufferSize {
		return ErrInvalidBufferSize
	}
	if c.Transfer.StorageDir == "" {
		return ErrInvalidStorageConfig
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return ErrInvalidLogFormat
	}
	return nil
}

// Address returns the host:port pair used by both the listener and the connector
func (c *Config) Address() string {
	return net.JoinHostPort(c.Network.Host, strconv.Itoa(c.Network.Port))
}

// ConfigureLogging applies the log settings to the standard logrus logger
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if c.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
