package synchub

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // OK for local dev; restrict in production
	},
}

// WSHandler upgrades the request and keeps the socket attached to the hub
// until the peer goes away. Incoming frames are drained and ignored; the
// sync channel is one-way.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.AttachWS(sock)
		defer func() {
			hub.DetachWS(sock)
			log.Println("[ws] listener detached")
		}()

		log.Println("[ws] listener attached")
		hub.HelloWS(sock)

		for {
			if _, _, err := sock.ReadMessage(); err != nil {
				return
			}
		}
	}
}
