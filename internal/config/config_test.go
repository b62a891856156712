package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:5001", cfg.Address())
	assert.Equal(t, 1024, cfg.Transfer.BufferSize)
	assert.Equal(t, 1, cfg.Network.MaxConcurrent)
	assert.True(t, cfg.Transfer.Ack)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"empty host", func(c *Config) { c.Network.Host = "" }, ErrInvalidHost},
		{"zero port", func(c *Config) { c.Network.Port = 0 }, ErrInvalidPort},
		{"port too large", func(c *Config) { c.Network.Port = 70000 }, ErrInvalidPort},
		{"zero buffer", func(c *Config) { c.Transfer.BufferSize = 0 }, ErrInvalidBufferSize},
		{"huge buffer", func(c *Config) { c.Transfer.BufferSize = MaxBufferSize + 1 }, ErrInvalidBufferSize},
		{"no workers", func(c *Config) { c.Network.MaxConcurrent = 0 }, ErrInvalidConcurrency},
		{"negative timeout", func(c *Config) { c.Transfer.IOTimeout = -time.Second }, ErrInvalidTimeout},
		{"empty storage", func(c *Config) { c.Transfer.StorageDir = "" }, ErrInvalidStorageConfig},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidLogLevel},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FILEDROP_HOST", "0.0.0.0")
	t.Setenv("FILEDROP_PORT", "6000")
	t.Setenv("FILEDROP_BUFFER_SIZE", "4096")
	t.Setenv("FILEDROP_IO_TIMEOUT", "5s")

	v := viper.New()
	BindEnv(v, "FILEDROP")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:6000", cfg.Address())
	assert.Equal(t, 4096, cfg.Transfer.BufferSize)
	assert.Equal(t, 5*time.Second, cfg.Transfer.IOTimeout)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filedrop.yaml")
	content := []byte(`
network:
  port: 7001
  max_concurrent: 4
transfer:
  storage_dir: /srv/drop
  ack: false
log:
  format: json
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Network.Port)
	assert.Equal(t, 4, cfg.Network.MaxConcurrent)
	assert.Equal(t, "/srv/drop", cfg.Transfer.StorageDir)
	assert.False(t, cfg.Transfer.Ack)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1", cfg.Network.Host)
}

func TestLoadRejectsInvalid(t *testing.T) {
	v := viper.New()
	v.Set("transfer.buffer_size", -1)

	_, err := Load(v)
	assert.ErrorIs(t, err, ErrInvalidBufferSize)
}
