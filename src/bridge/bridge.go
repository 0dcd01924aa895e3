// Package bridge relays broadcast frames between wirechat server
// instances so that clients on different nodes share one room.
package bridge

// Bridge is the cross-instance relay contract.
type Bridge interface {
	// Publish sends one broadcast frame to all other instances.
	Publish(msgType byte, payload []byte) error

	// Start begins listening for frames from other instances.
	Start() error

	// Stop shuts down the relay connection.
	Stop() error

	// Available reports whether the relay is connected and operational.
	Available() bool
}

// BroadcastTarget is implemented by the hub to receive relayed frames.
type BroadcastTarget interface {
	BroadcastLocal(msgType byte, payload []byte)
}
