package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard connects from a different origin in dev mode.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEventStream pushes every emitted event to the client as JSON.
// The subscription is dropped when the client disconnects.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}
	defer conn.Close()

	sub := s.events.Subscribe()
	defer s.events.Unsubscribe(sub)

	s.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Event stream connected")

	// Drain client frames so close and pong handling work.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				s.log.Debug().Err(err).Msg("Event stream write failed")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
