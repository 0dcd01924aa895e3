package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wirechat/wirechat/config"
	"github.com/wirechat/wirechat/src/server"
)

func main() {
	cfg := config.FromEnv()

	flag.StringVar(&cfg.Host, "host", cfg.Host, "address to bind the server to")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	flag.IntVar(&cfg.MaxClients, "max-clients", cfg.MaxClients, "maximum concurrent clients (0 = unlimited)")
	flag.StringVar(&cfg.AdminAddr, "admin", cfg.AdminAddr, "HTTP info endpoint address (empty = disabled)")
	flag.BoolVar(&cfg.EnableBridge, "bridge", cfg.EnableBridge, "relay broadcasts between instances via Redis")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	srv := server.New(cfg, logger)
	if err := srv.Listen(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("server shutdown complete")
}
