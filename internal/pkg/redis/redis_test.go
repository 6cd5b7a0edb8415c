package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/media-path/internal/pkg/logger"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "single without addr", mutate: func(c *Config) { c.Addr = "" }, wantErr: true},
		{
			name:    "sentinel without master",
			mutate:  func(c *Config) { c.Mode = ModeSentinel; c.SentinelAddrs = []string{"s:26379"} },
			wantErr: true,
		},
		{
			name:   "cluster",
			mutate: func(c *Config) { c.Mode = ModeCluster; c.ClusterAddrs = []string{"a:7000", "b:7001"} },
		},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "read-write" }, wantErr: true},
		{name: "db out of range", mutate: func(c *Config) { c.DB = 16 }, wantErr: true},
		{name: "idle above pool", mutate: func(c *Config) { c.MinIdleConns = 20 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(redis.Nil))
	assert.True(t, IsNil(fmt.Errorf("alias lookup: %w", ErrNil)))
	assert.False(t, IsNil(nil))
}

func TestPingUninitialized(t *testing.T) {
	c := &Client{logger: logger.NewNop()}
	assert.ErrorIs(t, c.Ping(context.Background()), ErrNotInitialized)
	assert.NoError(t, c.Close())
}

func TestNewUnreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond
	cfg.MaxRetries = -1

	_, err := New(cfg, logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}
