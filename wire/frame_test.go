package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name    string
		event   string
		payload any
	}{
		{name: "nil payload", event: "ping", payload: nil},
		{name: "string", event: "greet", payload: "Hello JavaScript World!"},
		{name: "number", event: "count", payload: float64(42)},
		{name: "object", event: "update", payload: map[string]any{"n": float64(1), "ok": true}},
		{name: "array", event: "batch", payload: []any{"a", float64(2), nil}},
		{name: "unicode", event: "text", payload: "héllo wörld ✓"},
		{name: "embedded newline", event: "multiline", payload: "line one\nline two"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := Encode(tc.event, tc.payload)
			require.NoError(t, err)

			// exactly one raw newline, as the terminator
			require.Equal(t, byte('\n'), frame[len(frame)-1])
			assert.Equal(t, 1, bytes.Count(frame, []byte{'\n'}))

			decoded, err := Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, tc.event, decoded.Event)
			assert.Equal(t, tc.payload, decoded.Payload)
		})
	}
}

func TestEncodeUnrepresentablePayload(t *testing.T) {
	_, err := Encode("bad", func() {})
	require.Error(t, err)
}

func TestDecodeMalformedLine(t *testing.T) {
	_, err := Decode([]byte("{not json\n"))
	require.Error(t, err)
}

func TestDecodeMissingEvent(t *testing.T) {
	_, err := Decode([]byte(`{"payload": 1}`))
	require.ErrorIs(t, err, ErrMissingEvent)
}

func TestDecodeNullPayload(t *testing.T) {
	frame, err := Decode([]byte(`{"event": "ping", "payload": null}`))
	require.NoError(t, err)
	assert.Equal(t, "ping", frame.Event)
	assert.Nil(t, frame.Payload)

	frame, err = Decode([]byte(`{"event": "ping"}`))
	require.NoError(t, err)
	assert.Nil(t, frame.Payload)
}
