package socket

import (
	"net/http"
	"time"

	"docshare/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows connections from the dev frontend
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Session is one live WebSocket connection for an authenticated user.
type Session struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID string
	Send   chan []byte
}

// ServeWs upgrades the HTTP connection and registers the session with
// the hub. The caller has already been authenticated by middleware.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	session := &Session{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
	session.Hub.Register <- session

	go session.writePump()
	go session.readPump()
}

// readPump drains the connection so pongs and close frames are
// processed. Sessions are receive-only; inbound frames are discarded.
func (s *Session) readPump() {
	defer func() {
		s.Hub.Unregister <- s
		s.Conn.Close()
	}()

	for {
		if _, _, err := s.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(30 * time.Second) // Send ping every 30s
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-s.Send:
			if !ok {
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			s.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection is dead
			}
		}
	}
}
