// Package session drives the per-connection protocol state machine:
// join handshake, active message loop, and teardown.
package session

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/wirechat/wirechat/src/command"
	"github.com/wirechat/wirechat/src/hub"
	"github.com/wirechat/wirechat/src/protocol"
)

// State identifies where a session is in its lifecycle. It is owned
// exclusively by the session's goroutine.
type State int

const (
	StateAwaitingJoin State = iota
	StateActive
	StateClosing
	StateClosed
)

// Session is the state machine for one accepted connection. Run is the
// only entry point; everything else is internal to its goroutine.
type Session struct {
	hub      *hub.Hub
	client   *hub.Client
	commands *command.Processor
	maxFrame uint32
	logger   zerolog.Logger

	state    State
	username string
}

// New creates a session for client. maxFrame bounds inbound frame
// bodies; zero applies the protocol default.
func New(h *hub.Hub, c *hub.Client, commands *command.Processor, maxFrame uint32, logger zerolog.Logger) *Session {
	return &Session{
		hub:      h,
		client:   c,
		commands: commands,
		maxFrame: maxFrame,
		state:    StateAwaitingJoin,
		logger: logger.With().
			Str("component", "session").
			Str("client_id", c.ID).
			Str("remote_addr", c.RemoteAddr()).
			Logger(),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// Username returns the registered name, empty before a successful JOIN.
func (s *Session) Username() string { return s.username }

// Run owns the connection from accept to close: it starts the write
// pump, performs the join handshake, loops over inbound frames, and
// finishes with teardown. Run one goroutine per connection.
func (s *Session) Run() {
	go s.client.WritePump()
	defer s.teardown()

	if !s.handshake() {
		return
	}
	s.state = StateActive
	s.loop()
}

// handshake reads frames until a valid JOIN registers a unique
// username. Rejections keep the connection open for a retry; only
// stream errors give up.
func (s *Session) handshake() bool {
	for {
		msg, err := protocol.Read(s.client.Conn(), s.maxFrame)
		if err != nil {
			s.logger.Debug().Err(err).Msg("connection ended before join")
			return false
		}

		username := string(msg.Payload)
		if msg.Type != protocol.TypeJoin || !validUsername(username) {
			s.sendError("Invalid JOIN message.")
			continue
		}

		if err := s.hub.Register(s.client, username); err != nil {
			s.sendError("Username already taken.")
			continue
		}

		s.username = username
		s.logger = s.logger.With().Str("username", username).Logger()
		s.logger.Info().Msg("joined")

		s.hub.Broadcast(protocol.TypeJoin, []byte(username+" joined the chat."), s.client)
		if err := s.hub.SendDirect(s.client, protocol.TypeText, []byte("Welcome! Type /help for commands.")); err != nil {
			s.logger.Warn().Err(err).Msg("welcome undeliverable")
		}
		return true
	}
}

// loop processes frames strictly in arrival order until the stream
// ends or misbehaves.
func (s *Session) loop() {
	for {
		msg, err := protocol.Read(s.client.Conn(), s.maxFrame)
		if err != nil {
			s.logger.Debug().Err(err).Msg("read loop ended")
			return
		}

		switch msg.Type {
		case protocol.TypeText:
			text := string(msg.Payload)
			if strings.HasPrefix(text, "/") {
				s.commands.Dispatch(s.client, s.username, text)
				continue
			}
			s.relay(protocol.TypeText, msg.Payload)
		case protocol.TypeFile:
			s.relay(protocol.TypeFile, msg.Payload)
		default:
			s.logger.Debug().Uint8("type", msg.Type).Msg("ignoring frame type")
		}
	}
}

// relay broadcasts a user message with the sender's name prepended,
// excluding the sender itself.
func (s *Session) relay(msgType byte, payload []byte) {
	prefixed := make([]byte, 0, len(s.username)+2+len(payload))
	prefixed = append(prefixed, s.username...)
	prefixed = append(prefixed, "::"...)
	prefixed = append(prefixed, payload...)
	s.hub.Broadcast(msgType, prefixed, s.client)
}

// teardown unregisters the connection, announces the departure if a
// username had been registered, and closes the stream.
func (s *Session) teardown() {
	s.state = StateClosing

	username, registered := s.hub.Unregister(s.client)
	s.client.Close()
	if registered {
		s.hub.Broadcast(protocol.TypeLeave, []byte(username+" left the chat."), nil)
	}

	s.state = StateClosed
	s.logger.Debug().Msg("session closed")
}

func (s *Session) sendError(text string) {
	if err := s.hub.SendDirect(s.client, protocol.TypeError, []byte(text)); err != nil {
		s.logger.Warn().Err(err).Msg("error reply undeliverable")
	}
}

// validUsername rejects empty names and names containing the "::"
// payload delimiter, which would corrupt prefixed broadcasts on the
// receiving side.
func validUsername(name string) bool {
	return name != "" && !strings.Contains(name, "::")
}
