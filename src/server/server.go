// Package server ties the listener, hub, sessions, bridge, and admin
// endpoint together into one runnable chat service.
package server

import (
	"context"
	"errors"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wirechat/wirechat/config"
	"github.com/wirechat/wirechat/src/bridge"
	"github.com/wirechat/wirechat/src/command"
	"github.com/wirechat/wirechat/src/hub"
	"github.com/wirechat/wirechat/src/protocol"
	"github.com/wirechat/wirechat/src/session"
)

// Server accepts TCP connections and runs one session per client.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	commands *command.Processor
	logger   zerolog.Logger

	listener net.Listener
	bridge   bridge.Bridge
}

// New wires up a server from cfg. Call Listen then Serve.
func New(cfg *config.Config, logger zerolog.Logger) *Server {
	h := hub.New(logger)
	return &Server{
		cfg:      cfg,
		hub:      h,
		commands: command.New(h, logger),
		logger:   logger.With().Str("component", "server").Logger(),
	}
}

// Hub exposes the registry, mainly for the admin endpoint and tests.
func (s *Server) Hub() *hub.Hub { return s.hub }

// Listen binds the TCP listener. Separate from Serve so callers can
// learn the bound address before serving (port 0 in tests).
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
	return nil
}

// Addr returns the bound listener address. Valid after Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve runs the accept loop, the optional admin endpoint, and the
// optional Redis bridge until ctx is canceled or the listener fails.
// Individual session failures never end Serve.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server: Serve called before Listen")
	}

	s.initBridge()
	defer s.stopBridge()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.acceptLoop(ctx)
	})
	if s.cfg.AdminAddr != "" {
		g.Go(func() error {
			return s.serveAdmin(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		_ = s.listener.Close()
		s.hub.CloseAll()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			s.logger.Error().Err(err).Msg("accept failed")
			continue
		}

		if s.cfg.MaxClients > 0 && s.hub.ClientCount() >= s.cfg.MaxClients {
			s.refuse(conn)
			continue
		}

		client := hub.NewClient(conn, s.logger, s.cfg.WriteTimeout)
		s.logger.Info().
			Str("client_id", client.ID).
			Str("remote_addr", client.RemoteAddr()).
			Msg("connection accepted")

		sess := session.New(s.hub, client, s.commands, s.cfg.MaxFrameSize, s.logger)
		go sess.Run()
	}
}

// refuse turns away a connection over the client cap with an ERROR
// frame so the peer learns why instead of seeing a bare reset.
func (s *Server) refuse(conn net.Conn) {
	s.logger.Warn().
		Str("remote_addr", conn.RemoteAddr().String()).
		Int("max_clients", s.cfg.MaxClients).
		Msg("refusing connection, server full")
	_ = protocol.Write(conn, protocol.TypeError, []byte("Server full. Try again later."))
	_ = conn.Close()
}

// initBridge attempts to start the Redis relay when enabled. Failure
// is non-fatal; the server runs standalone.
func (s *Server) initBridge() {
	if !s.cfg.EnableBridge {
		return
	}

	cfg := bridge.RedisConfigFromEnv()
	rb := bridge.NewRedisBridge(cfg, s.hub, s.logger)
	if err := rb.Start(); err != nil {
		s.logger.Warn().Err(err).Msg("redis bridge unavailable, running standalone")
		return
	}

	s.bridge = rb
	s.hub.SetBridge(rb)
	s.logger.Info().Str("redis_addr", cfg.Addr).Msg("redis bridge connected")
}

func (s *Server) stopBridge() {
	if s.bridge == nil {
		return
	}
	if err := s.bridge.Stop(); err != nil {
		s.logger.Error().Err(err).Msg("bridge stop error")
	}
	s.bridge = nil
}
