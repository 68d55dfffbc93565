// Package tap serves a debug view of the event channel over HTTP:
// every frame crossing the duplex channel is mirrored to connected
// WebSocket clients as JSON, annotated with its direction.
package tap

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/gonwjs/gonwjs/wire"
)

// Direction tells a tap client which side of the channel a frame was
// seen on.
type Direction string

const (
	// Inbound frames were received from the GUI.
	Inbound Direction = "in"
	// Outbound frames were emitted by the host.
	Outbound Direction = "out"
)

// TappedFrame is the message sent to tap clients.
type TappedFrame struct {
	Direction Direction  `json:"direction"`
	Frame     wire.Frame `json:"frame"`
}

type client struct {
	conn *websocket.Conn
	ch   chan TappedFrame
}

// Server mirrors frames to WebSocket clients. It holds no session
// state and never backpressures the session: slow clients drop frames.
type Server struct {
	log      *zap.SugaredLogger
	listener net.Listener
	server   *http.Server

	mut     sync.Mutex
	clients map[*client]struct{}
}

// Listen starts the tap server on addr.
func Listen(addr string, log *zap.SugaredLogger) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	s := &Server{
		log:      log,
		listener: l,
		clients:  map[*client]struct{}{},
	}

	router := httprouter.New()
	router.GET("/events", s.events)
	s.server = &http.Server{Handler: router}

	go func() {
		err := s.server.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Debugf("tap server stopped: %s", err)
		}
	}()

	log.Debugf("event tap listening on %s", l.Addr())
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

func (s *Server) events(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Debugf("error accepting WebSocket conn: %s", err)
		return
	}
	s.log.Debug("accepted tap client")

	c := &client{conn: conn, ch: make(chan TappedFrame, 64)}
	s.mut.Lock()
	s.clients[c] = struct{}{}
	s.mut.Unlock()
	defer func() {
		s.mut.Lock()
		delete(s.clients, c)
		s.mut.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-c.ch:
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				s.log.Debugf("error writing to tap client: %s", err)
				return
			}
		}
	}
}

// Publish mirrors one frame to all connected clients.
func (s *Server) Publish(dir Direction, frame wire.Frame) {
	s.mut.Lock()
	defer s.mut.Unlock()
	for c := range s.clients {
		select {
		case c.ch <- TappedFrame{Direction: dir, Frame: frame}:
		default:
			// slow client, drop the frame
		}
	}
}

// Close disconnects all clients and stops the server.
func (s *Server) Close() error {
	s.mut.Lock()
	for c := range s.clients {
		c.conn.Close(websocket.StatusGoingAway, "session closed")
	}
	s.clients = map[*client]struct{}{}
	s.mut.Unlock()
	return s.server.Close()
}
