package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 12000, cfg.Port)
	assert.Equal(t, 10, cfg.MaxClients)
	assert.Equal(t, uint32(16<<20), cfg.MaxFrameSize)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Empty(t, cfg.AdminAddr)
	assert.False(t, cfg.EnableBridge)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("CHAT_HOST", "127.0.0.1")
	t.Setenv("CHAT_PORT", "9999")
	t.Setenv("CHAT_MAX_CLIENTS", "42")
	t.Setenv("CHAT_MAX_FRAME_BYTES", "1024")
	t.Setenv("CHAT_WRITE_TIMEOUT", "3s")
	t.Setenv("CHAT_ADMIN_ADDR", ":8088")
	t.Setenv("CHAT_BRIDGE_ENABLED", "true")

	cfg := FromEnv()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 42, cfg.MaxClients)
	assert.Equal(t, uint32(1024), cfg.MaxFrameSize)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
	assert.Equal(t, ":8088", cfg.AdminAddr)
	assert.True(t, cfg.EnableBridge)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("CHAT_PORT", "not-a-port")
	t.Setenv("CHAT_WRITE_TIMEOUT", "eventually")

	cfg := FromEnv()
	assert.Equal(t, 12000, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
}

func TestAddr(t *testing.T) {
	cfg := &Config{Host: "10.0.0.5", Port: 7000}
	assert.Equal(t, "10.0.0.5:7000", cfg.Addr())
}
