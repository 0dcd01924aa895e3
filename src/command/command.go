// Package command interprets in-band control commands sent as TEXT
// lines beginning with "/".
package command

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/wirechat/wirechat/src/hub"
	"github.com/wirechat/wirechat/src/protocol"
)

const helpText = "[Server] Commands:\n" +
	"/users - List online users\n" +
	"/send <filepath> - Send a file\n" +
	"/quit - Disconnect"

// Processor dispatches recognized commands and answers the issuing
// client directly. Commands never touch the registry except through
// the teardown that /quit provokes.
type Processor struct {
	hub    *hub.Hub
	logger zerolog.Logger
}

// New creates a Processor backed by the given hub.
func New(h *hub.Hub, logger zerolog.Logger) *Processor {
	return &Processor{
		hub:    h,
		logger: logger.With().Str("component", "command").Logger(),
	}
}

// Dispatch handles one raw command line (leading "/" included) from
// username's connection. The verb is matched case-insensitively;
// anything unrecognized earns an ERROR frame.
func (p *Processor) Dispatch(c *hub.Client, username, raw string) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return
	}
	verb := strings.ToLower(fields[0])

	p.logger.Debug().
		Str("username", username).
		Str("verb", verb).
		Msg("command received")

	switch verb {
	case "/quit":
		p.quit(c)
	case "/users":
		p.users(c)
	case "/help":
		p.reply(c, protocol.TypeText, helpText)
	default:
		p.reply(c, protocol.TypeError, "Unknown command. Type /help.")
	}
}

// quit acknowledges and then closes the connection from the server
// side so the client's next read observes end-of-stream. The LEAVE
// announcement is the session teardown's job, not ours.
func (p *Processor) quit(c *hub.Client) {
	p.reply(c, protocol.TypeCommand, protocol.QuitAck)
	c.Shutdown()
}

func (p *Processor) users(c *hub.Client) {
	names := p.hub.Usernames()
	p.reply(c, protocol.TypeText, "[Server] Online users: "+strings.Join(names, ", "))
}

func (p *Processor) reply(c *hub.Client, msgType byte, text string) {
	if err := p.hub.SendDirect(c, msgType, []byte(text)); err != nil {
		p.logger.Warn().
			Err(err).
			Str("client_id", c.ID).
			Msg("command reply undeliverable")
	}
}
