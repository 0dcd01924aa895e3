// Package config holds the wirechat server's runtime configuration.
package config

import (
	"net"
	"os"
	"strconv"
	"time"
)

// Config holds server settings. Values come from defaults, then
// environment variables, then command-line flags, in that order.
type Config struct {
	Host         string        // bind address
	Port         int           // listen port
	MaxClients   int           // concurrent connection cap, 0 = unlimited
	MaxFrameSize uint32        // inbound frame body limit in bytes
	WriteTimeout time.Duration // per-write socket deadline, 0 = none
	AdminAddr    string        // HTTP info endpoint address, "" = disabled
	EnableBridge bool          // relay broadcasts via Redis pub/sub
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         12000,
		MaxClients:   10,
		MaxFrameSize: 16 << 20,
		WriteTimeout: 10 * time.Second,
	}
}

// FromEnv returns the default configuration overridden by any CHAT_*
// environment variables that are set.
func FromEnv() *Config {
	cfg := Default()

	if host := os.Getenv("CHAT_HOST"); host != "" {
		cfg.Host = host
	}
	if v := os.Getenv("CHAT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("CHAT_MAX_CLIENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxClients = n
		}
	}
	if v := os.Getenv("CHAT_MAX_FRAME_BYTES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.MaxFrameSize = uint32(n)
		}
	}
	if v := os.Getenv("CHAT_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WriteTimeout = d
		}
	}
	if addr := os.Getenv("CHAT_ADMIN_ADDR"); addr != "" {
		cfg.AdminAddr = addr
	}
	if v := os.Getenv("CHAT_BRIDGE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.EnableBridge = enabled
		}
	}
	return cfg
}

// Addr returns the host:port the listener binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
