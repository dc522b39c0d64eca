package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second

	// wsReadLimit bounds inbound messages; clients only send close
	// frames and pings.
	wsReadLimit = 1024
)

// handleWebSocket serves one topic over a WebSocket, sending the same
// event JSON as the SSE endpoint, one event per text message.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.touch()

	topic, ok := s.lookupTopic(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Topic not found")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.allowOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.requestsFailed.Add(1)
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(wsReadLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, err := s.openStream(ctx, topic.Name, topic.Type)
	if err != nil {
		s.logger.Error("stream setup failed", "topic", topic.Name, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "failed to start stream"),
			time.Now().Add(wsWriteTimeout))
		return
	}
	// Read pump: discard client messages, detect disconnect. Its
	// cancel() tears the pipeline down via the shared ctx.
	go func() {
		defer cancel()
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	if s.core != nil {
		s.core.RecordClientConnected(s.name, "websocket", 1)
		defer s.core.RecordClientConnected(s.name, "websocket", -1)
	}
	s.logger.Info("websocket client subscribed", "topic", topic.Name, "remote", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("websocket client gone", "topic", topic.Name, "remote", r.RemoteAddr)
			return
		case ev, open := <-events:
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"),
					time.Now().Add(wsWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if writeErr := conn.WriteJSON(ev); writeErr != nil {
				return
			}
			s.eventsSent.Add(1)
			if s.core != nil {
				s.core.RecordEventDelivered(s.name, "websocket")
			}
		}
	}
}
