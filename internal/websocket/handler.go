package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one subscriber until its connection closes.
func ServeWs(hub *Hub, conn *websocket.Conn, sessionID string) {
	client := NewClient(hub, conn, sessionID)
	client.subscribedFrame()
	hub.Register(client)

	go client.writePump()
	client.readPump()
}
