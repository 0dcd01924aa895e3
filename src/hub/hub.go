// Package hub holds the authoritative registry of connected, named
// clients and fans messages out to them.
package hub

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wirechat/wirechat/src/protocol"
)

// ErrUsernameTaken reports a JOIN attempt with a name another live
// connection already holds. Comparison is case-sensitive.
var ErrUsernameTaken = errors.New("hub: username already taken")

// ErrSendFailed reports a direct send that could not be queued, either
// because the client is closing or its outbound buffer is full.
var ErrSendFailed = errors.New("hub: client unreachable")

// MessageBridge relays broadcast frames to other server instances.
// Defined here to avoid a circular import with the bridge package.
type MessageBridge interface {
	Publish(msgType byte, payload []byte) error
	Available() bool
}

// Hub maps live connections to usernames and implements fan-out.
// One mutex covers registration, removal, and target snapshots;
// socket writes never happen under it.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]string
	bridge  MessageBridge
	logger  zerolog.Logger
}

// New creates an empty Hub.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]string),
		logger:  logger.With().Str("component", "hub").Logger(),
	}
}

// SetBridge attaches a cross-instance message bridge. Broadcasts are
// then also published to other instances.
func (h *Hub) SetBridge(b MessageBridge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bridge = b
}

// Register binds client to username. The uniqueness check and the
// insert happen atomically under the lock; no observer can see a
// half-registered client or a duplicate name.
func (h *Hub) Register(c *Client, username string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, name := range h.clients {
		if name == username {
			return ErrUsernameTaken
		}
	}
	h.clients[c] = username

	h.logger.Info().
		Str("client_id", c.ID).
		Str("username", username).
		Int("clients", len(h.clients)).
		Msg("client registered")
	return nil
}

// Unregister removes the client if present and returns the username it
// held.
func (h *Hub) Unregister(c *Client) (string, bool) {
	h.mu.Lock()
	username, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info().
			Str("client_id", c.ID).
			Str("username", username).
			Int("clients", remaining).
			Msg("client unregistered")
	}
	return username, ok
}

// Snapshot returns every registered client except exclude, as the
// registry stood at one instant. Clients removed afterwards are still
// in the slice; sends to them fail quietly.
func (h *Hub) Snapshot(exclude *Client) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	return targets
}

// Usernames returns the currently registered names in sorted order.
func (h *Hub) Usernames() []string {
	h.mu.RLock()
	names := make([]string, 0, len(h.clients))
	for _, name := range h.clients {
		names = append(names, name)
	}
	h.mu.RUnlock()

	sort.Strings(names)
	return names
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast encodes the message once and queues it to every registered
// client except exclude. A target that cannot accept the frame is
// logged and skipped; the caller never sees per-target failures.
// When a bridge is attached the frame is also published to the other
// instances.
func (h *Hub) Broadcast(msgType byte, payload []byte, exclude *Client) {
	h.publishToBridge(msgType, payload)
	h.fanOut(msgType, payload, exclude)
}

// BroadcastLocal delivers a frame relayed from another instance to all
// local clients without re-publishing it, preventing relay loops.
func (h *Hub) BroadcastLocal(msgType byte, payload []byte) {
	h.fanOut(msgType, payload, nil)
}

func (h *Hub) fanOut(msgType byte, payload []byte, exclude *Client) {
	frame := protocol.Encode(msgType, payload)
	for _, c := range h.Snapshot(exclude) {
		if !c.enqueue(frame) {
			h.logger.Warn().
				Str("client_id", c.ID).
				Uint8("type", msgType).
				Msg("dropping broadcast frame, client unreachable")
		}
	}
}

// SendDirect encodes and queues one frame for a single client. Unlike
// Broadcast, a delivery failure is reported to the caller.
func (h *Hub) SendDirect(c *Client, msgType byte, payload []byte) error {
	if !c.enqueue(protocol.Encode(msgType, payload)) {
		return ErrSendFailed
	}
	return nil
}

func (h *Hub) publishToBridge(msgType byte, payload []byte) {
	h.mu.RLock()
	b := h.bridge
	h.mu.RUnlock()

	if b == nil || !b.Available() {
		return
	}
	if err := b.Publish(msgType, payload); err != nil {
		h.logger.Error().Err(err).Msg("bridge publish failed")
	}
}

// CloseAll force-closes every registered connection. Used on server
// shutdown; the sessions' teardown paths do the unregistering.
func (h *Hub) CloseAll() {
	for _, c := range h.Snapshot(nil) {
		c.Close()
	}
}
