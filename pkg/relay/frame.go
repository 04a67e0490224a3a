// Package relay implements the bidirectional streaming core: it pairs one
// client websocket with one upstream provider websocket and forwards frames
// in both directions until either side terminates.
package relay

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// Frame is one discrete unit of data in transit on either connection.
// Frames are immutable once produced; ownership transfers to the consumer
// on forward.
type Frame struct {
	// Type is the websocket message type (TextMessage or BinaryMessage).
	Type int

	// Data is the frame payload.
	Data []byte
}

// Text builds a text frame from raw bytes.
func Text(data []byte) Frame {
	return Frame{Type: websocket.TextMessage, Data: data}
}

// Binary builds a binary frame from raw bytes.
func Binary(data []byte) Frame {
	return Frame{Type: websocket.BinaryMessage, Data: data}
}

// JSON marshals v into a text frame.
func JSON(v any) (Frame, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Frame{}, err
	}
	return Text(data), nil
}

// MustJSON marshals v into a text frame and panics on failure. For use with
// fixed message shapes that cannot fail to marshal.
func MustJSON(v any) Frame {
	f, err := JSON(v)
	if err != nil {
		panic(err)
	}
	return f
}

// IsText reports whether the frame is a text frame.
func (f Frame) IsText() bool {
	return f.Type == websocket.TextMessage
}

// Routed is the outcome of routing one inbound frame: zero or more frames
// for each side, plus an optional graceful-close signal.
type Routed struct {
	// ToUpstream is forwarded to the provider, in order.
	ToUpstream []Frame

	// ToClient is forwarded to the client, in order.
	ToClient []Frame

	// Close requests graceful session termination after the frames above
	// have been forwarded.
	Close bool
}

// Drop is the zero Routed value: nothing forwarded, session continues.
var Drop = Routed{}
