package server

import (
	"context"

	"github.com/gofiber/fiber/v3"
)

// newAdminApp builds the read-only HTTP surface: a single /info route
// reporting who is online. Disabled unless AdminAddr is configured.
func (s *Server) newAdminApp() *fiber.App {
	app := fiber.New()

	app.Get("/info", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"clients": s.hub.ClientCount(),
			"users":   s.hub.Usernames(),
		})
	})
	return app
}

func (s *Server) serveAdmin(ctx context.Context) error {
	app := s.newAdminApp()

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	s.logger.Info().Str("addr", s.cfg.AdminAddr).Msg("admin endpoint listening")
	listenCfg := fiber.ListenConfig{DisableStartupMessage: true}
	if err := app.Listen(s.cfg.AdminAddr, listenCfg); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
