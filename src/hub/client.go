package hub

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sendQueueSize is the per-connection outbound buffer. A receiver that
// falls further behind than this starts losing broadcast frames rather
// than stalling the senders.
const sendQueueSize = 64

// Client wraps one accepted TCP connection. All outbound frames go
// through a buffered queue drained by WritePump, so no caller ever
// blocks on a slow receiver's socket.
type Client struct {
	ID   string
	conn net.Conn

	send         chan []byte
	done         chan struct{}
	draining     chan struct{}
	writeTimeout time.Duration

	closeOnce sync.Once
	drainOnce sync.Once
	logger    zerolog.Logger
}

// NewClient wraps conn with an outbound queue. writeTimeout bounds each
// socket write; zero disables the deadline.
func NewClient(conn net.Conn, logger zerolog.Logger, writeTimeout time.Duration) *Client {
	id := uuid.New().String()
	return &Client{
		ID:           id,
		conn:         conn,
		send:         make(chan []byte, sendQueueSize),
		done:         make(chan struct{}),
		draining:     make(chan struct{}),
		writeTimeout: writeTimeout,
		logger: logger.With().
			Str("client_id", id).
			Str("remote_addr", conn.RemoteAddr().String()).
			Logger(),
	}
}

// Conn exposes the underlying stream for the session's blocking reads.
// Reads are owned by exactly one session goroutine; writes go through
// the queue only.
func (c *Client) Conn() net.Conn { return c.conn }

// RemoteAddr returns the peer address for logging.
func (c *Client) RemoteAddr() string { return c.conn.RemoteAddr().String() }

// enqueue queues an encoded frame without blocking. It reports false
// when the client is shutting down or its queue is full.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// WritePump drains the outbound queue onto the socket. It exits when
// the client closes, a write fails, or a drain-then-close completes.
// Run in its own goroutine, one per client.
func (c *Client) WritePump() {
	defer c.Close()

	for {
		select {
		case frame := <-c.send:
			if !c.writeFrame(frame) {
				return
			}
		case <-c.draining:
			c.drainAndExit()
			return
		case <-c.done:
			return
		}
	}
}

// drainAndExit flushes whatever is already queued, then lets the
// deferred Close take the socket down. Used by /quit so the
// acknowledgement reaches the peer before the server-side close.
func (c *Client) drainAndExit() {
	for {
		select {
		case frame := <-c.send:
			if !c.writeFrame(frame) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) writeFrame(frame []byte) bool {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			c.logger.Debug().Err(err).Msg("set write deadline failed")
			return false
		}
	}
	if _, err := c.conn.Write(frame); err != nil {
		c.logger.Debug().Err(err).Msg("write failed")
		return false
	}
	return true
}

// Shutdown asks the write pump to flush queued frames and then close
// the connection. Safe to call more than once.
func (c *Client) Shutdown() {
	c.drainOnce.Do(func() { close(c.draining) })
}

// Close tears the connection down immediately, dropping anything still
// queued. Safe to call more than once and concurrently with enqueues.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
