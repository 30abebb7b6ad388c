package server

import (
	"log"
	"net/http"

	"github.com/atikulmunna/flowscope/internal/hub"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades to WebSocket, sends the current report and then
// every rebuild outcome as JSON.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates := s.hub.Subscribe()
	defer s.hub.Unsubscribe(updates)

	// Read pump: detects client disconnect.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if rep := s.hub.Latest(); rep != nil {
		if err := conn.WriteJSON(hub.Update{Path: rep.Source, At: rep.GeneratedAt, Report: rep}); err != nil {
			log.Printf("websocket write failed: %v", err)
			return
		}
	}

	// Write pump.
	for {
		select {
		case <-closed:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(u); err != nil {
				log.Printf("websocket write failed: %v", err)
				return
			}
		}
	}
}
