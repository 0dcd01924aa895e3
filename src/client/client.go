// Package client implements the client side of the wirechat protocol:
// connecting, joining, and exchanging frames with a server.
package client

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wirechat/wirechat/src/protocol"
)

// ErrJoinRejected reports a JOIN the server answered with an ERROR
// frame, most commonly a taken username.
var ErrJoinRejected = errors.New("client: join rejected")

// Client is a connected, joined chat participant. Decoded frames
// arrive on Events; SendText and SendFile go the other way.
type Client struct {
	conn     net.Conn
	username string
	maxFrame uint32
	events   chan protocol.Message
	logger   zerolog.Logger

	closeOnce sync.Once
	writeMu   sync.Mutex
}

// Dial connects to addr and performs the JOIN handshake as username.
// On success the returned client is active and its event loop running.
func Dial(addr, username string, logger zerolog.Logger) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:     conn,
		username: username,
		events:   make(chan protocol.Message, 16),
		logger:   logger.With().Str("component", "client").Logger(),
	}
	if err := c.join(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

// Username returns the name this client joined with.
func (c *Client) Username() string { return c.username }

// Events delivers decoded frames from the server. The channel closes
// when the connection ends, including after a /quit acknowledgement.
func (c *Client) Events() <-chan protocol.Message { return c.events }

// join sends the JOIN frame and waits for the server's verdict: a
// welcome TEXT on success, an ERROR frame on rejection.
func (c *Client) join() error {
	if err := c.write(protocol.TypeJoin, []byte(c.username)); err != nil {
		return err
	}

	msg, err := protocol.Read(c.conn, c.maxFrame)
	if err != nil {
		return err
	}
	if msg.Type == protocol.TypeError {
		return fmt.Errorf("%w: %s", ErrJoinRejected, msg.Payload)
	}
	c.logger.Debug().Str("username", c.username).Msg("joined")
	return nil
}

// SendText sends a chat line or an in-band command (leading "/").
func (c *Client) SendText(text string) error {
	return c.write(protocol.TypeText, []byte(text))
}

// SendFile sends filename and data as one FILE frame. Filenames
// containing "::" would be unparseable on the receiving side.
func (c *Client) SendFile(filename string, data []byte) error {
	if strings.Contains(filename, "::") {
		return errors.New("client: filename must not contain '::'")
	}
	payload := make([]byte, 0, len(filename)+2+len(data))
	payload = append(payload, filename...)
	payload = append(payload, "::"...)
	payload = append(payload, data...)
	return c.write(protocol.TypeFile, payload)
}

// Quit asks the server to disconnect us. The server acknowledges with
// a COMMAND frame and closes the stream; the event loop then exits.
func (c *Client) Quit() error {
	return c.SendText("/quit")
}

// Close tears the connection down locally.
func (c *Client) Close() {
	c.closeOnce.Do(func() { _ = c.conn.Close() })
}

func (c *Client) write(msgType byte, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.Write(c.conn, msgType, payload)
}

// readLoop forwards decoded frames to the events channel until the
// stream ends. A /quit acknowledgement is forwarded and then treated
// as the end of the session.
func (c *Client) readLoop() {
	defer close(c.events)
	defer c.Close()

	for {
		msg, err := protocol.Read(c.conn, c.maxFrame)
		if err != nil {
			c.logger.Debug().Err(err).Msg("disconnected")
			return
		}

		c.events <- msg

		if msg.Type == protocol.TypeCommand && string(msg.Payload) == protocol.QuitAck {
			c.logger.Debug().Msg("quit acknowledged")
			return
		}
	}
}
