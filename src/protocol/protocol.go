// Package protocol defines the wire format shared by the wirechat server
// and clients: typed, length-prefixed binary frames over a byte stream.
package protocol

// Message type tags carried in the first body byte of every frame.
const (
	TypeText    byte = 0x01
	TypeFile    byte = 0x02
	TypeJoin    byte = 0x03
	TypeLeave   byte = 0x04
	TypeError   byte = 0x05
	TypeCommand byte = 0x06
)

// HeaderSize is the size of the length prefix: a 4-byte unsigned
// big-endian integer covering the type byte plus the payload.
const HeaderSize = 4

// DefaultMaxFrameSize bounds how large a declared frame body may be
// before the decoder refuses to allocate it. Large enough for file
// transfers, small enough that a hostile peer cannot ask for the moon.
const DefaultMaxFrameSize = 16 << 20

// Message is one decoded frame: the type tag and its opaque payload.
// The payload's internal structure depends on the type; the codec does
// not interpret it.
type Message struct {
	Type    byte
	Payload []byte
}

// QuitAck is the fixed COMMAND payload acknowledging a /quit request.
const QuitAck = "/quit_ack"
