package websocket

import "github.com/gofiber/websocket/v2"

// ServeWs attaches conn to the hub and blocks until the peer disconnects.
func ServeWs(hub *Hub, conn *websocket.Conn) {
	client := newClient(hub, conn)
	if !hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
