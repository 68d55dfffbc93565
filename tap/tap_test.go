package tap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/gonwjs/gonwjs/wire"
)

func dialTap(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://%s/events", s.Addr()), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestPublishReachesClient(t *testing.T) {
	s, err := Listen("127.0.0.1:0", zap.NewNop().Sugar())
	require.NoError(t, err)
	defer s.Close()

	conn := dialTap(t, s)

	// the subscription registers on accept; give the handler a moment
	require.Eventually(t, func() bool {
		s.mut.Lock()
		defer s.mut.Unlock()
		return len(s.clients) == 1
	}, 5*time.Second, 5*time.Millisecond)

	s.Publish(Outbound, wire.Frame{Event: "ping", Payload: map[string]any{"n": float64(1)}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var got TappedFrame
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, Outbound, got.Direction)
	assert.Equal(t, "ping", got.Frame.Event)
	assert.Equal(t, map[string]any{"n": float64(1)}, got.Frame.Payload)
}

func TestPublishWithoutClients(t *testing.T) {
	s, err := Listen("127.0.0.1:0", zap.NewNop().Sugar())
	require.NoError(t, err)
	defer s.Close()

	s.Publish(Inbound, wire.Frame{Event: "orphan"})
}

func TestCloseDisconnectsClients(t *testing.T) {
	s, err := Listen("127.0.0.1:0", zap.NewNop().Sugar())
	require.NoError(t, err)

	conn := dialTap(t, s)
	require.NoError(t, s.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var got TappedFrame
	err = wsjson.Read(ctx, conn, &got)
	require.Error(t, err)
}
