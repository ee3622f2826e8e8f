package server

import (
	"log"

	"github.com/gin-gonic/gin"
)

// events streams every committed mutation to a websocket client, as JSON
// messages, until the client goes away.
func (s *Server) events(c *gin.Context) {
	// Subscribe first, so that no event is lost once the handshake is done.
	events, cancel := s.svc.Subscribe()
	defer cancel()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("websocket upgrade error:", err)
		return
	}
	defer conn.Close()

	// Clients never send anything, reading only detects when they leave.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				log.Println("websocket write error:", err)
				return
			}
		case <-gone:
			return
		}
	}
}
