// Package wire implements the framing used on the duplex channel:
// one JSON object per newline-terminated line, with the shape
// {"event": <string>, "payload": <any JSON value>}.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frame is one event record on the channel. Payload may be nil when
// the sender attached no data.
type Frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// ErrMissingEvent is returned by Decode when the line parsed as JSON
// but contained no event field.
var ErrMissingEvent = errors.New("frame has no event field")

// Encode serializes the event and payload into one newline-terminated
// frame. JSON escaping guarantees the frame contains no raw newline
// besides the terminator.
func Encode(event string, payload any) ([]byte, error) {
	b, err := json.Marshal(Frame{Event: event, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encoding frame for event %q: %w", event, err)
	}
	return append(b, '\n'), nil
}

// Decode parses one line into a frame. A missing or null payload
// decodes to a nil payload.
func Decode(line []byte) (Frame, error) {
	var raw struct {
		Event   *string `json:"event"`
		Payload any     `json:"payload"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return Frame{}, fmt.Errorf("decoding frame: %w", err)
	}
	if raw.Event == nil {
		return Frame{}, ErrMissingEvent
	}
	return Frame{Event: *raw.Event, Payload: raw.Payload}, nil
}
