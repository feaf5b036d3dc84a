package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	cfg, err := Load()
	req.NoError(err)
	req.Equal("courier", cfg.Service.Name)
	req.Equal(":8080", cfg.Service.Addr)
	req.Equal("postgres", cfg.Store.Backend)
	req.Equal(45*time.Second, cfg.Redis.HeartbeatTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("STORE_BACKEND", "badger")
	t.Setenv("SERVICE_ADDR", ":9999")
	t.Setenv("JWT_TTL", "1h")

	cfg, err := Load()
	req.NoError(err)
	req.Equal("badger", cfg.Store.Backend)
	req.Equal(":9999", cfg.Service.Addr)
	req.Equal(time.Hour, cfg.Token.TTL)
}

func TestLoad_RejectsTinyHeartbeatTTL(t *testing.T) {
	req := require.New(t)
	t.Setenv("PRESENCE_HEARTBEAT_TTL", "500ms")

	_, err := Load()
	req.Error(err)
	req.Contains(err.Error(), "PRESENCE_HEARTBEAT_TTL")
}
