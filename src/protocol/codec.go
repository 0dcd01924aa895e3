package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrFrameTooLarge reports a frame whose declared body length exceeds
// the decoder's limit. Callers treat it as a protocol violation and
// drop the connection rather than read the body.
var ErrFrameTooLarge = errors.New("protocol: declared frame length exceeds limit")

// ErrMalformedFrame reports a frame whose body cannot hold a type byte.
// Callers treat it the same as a remote close: drop the connection.
var ErrMalformedFrame = errors.New("protocol: frame body too short for type byte")

// Encode builds the full wire representation of one frame:
// 4-byte big-endian length of (type + payload), then the type byte,
// then the payload.
func Encode(msgType byte, payload []byte) []byte {
	frame := make([]byte, HeaderSize+1+len(payload))
	binary.BigEndian.PutUint32(frame[:HeaderSize], uint32(1+len(payload)))
	frame[HeaderSize] = msgType
	copy(frame[HeaderSize+1:], payload)
	return frame
}

// Write encodes one frame and writes it to w in a single call.
func Write(w io.Writer, msgType byte, payload []byte) error {
	_, err := w.Write(Encode(msgType, payload))
	return err
}

// Read decodes exactly one frame from r. maxFrame bounds the declared
// body length; zero means DefaultMaxFrameSize.
//
// A stream that closes before a complete frame is available yields
// io.EOF, whether the close lands mid-header or mid-body. An
// unrecognized type tag is not rejected here; the caller decides.
func Read(r io.Reader, maxFrame uint32) (Message, error) {
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameSize
	}

	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Message{}, eofOn(err)
	}
	length := binary.BigEndian.Uint32(header[:])
	if length == 0 {
		return Message{}, ErrMalformedFrame
	}
	if length > maxFrame {
		return Message{}, ErrFrameTooLarge
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, eofOn(err)
	}
	return Message{Type: body[0], Payload: body[1:]}, nil
}

// eofOn collapses a partial read caused by stream closure into io.EOF
// so callers have one disconnection signal to handle.
func eofOn(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return err
}
