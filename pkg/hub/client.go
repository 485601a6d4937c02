package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	// writeWait bounds a single websocket write
	writeWait = 10 * time.Second

	// pongWait is how long a silent viewer stays considered alive
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxInboundSize caps what a viewer may send; they send nothing
	// meaningful, so this only guards against abuse
	maxInboundSize = 4 * 1024
)

// Viewer is one browser connection watching a hub's topic.
type Viewer struct {
	// ID tags log lines for this connection
	ID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Join registers a new viewer with the hub.
func Join(h *Hub, conn *websocket.Conn) *Viewer {
	v := &Viewer{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256), // Buffered for backpressure
	}
	h.register <- v
	return v
}

// Run starts the viewer's read and write pumps and blocks until the
// connection closes. Call it from the websocket handler.
func (v *Viewer) Run() {
	go v.writePump()
	v.readPump()
}

// readPump discards inbound traffic. Viewers never send anything
// meaningful; reading detects disconnects and feeds the pong handler.
func (v *Viewer) readPump() {
	defer func() {
		v.hub.unregister <- v
		v.conn.Close()
	}()

	v.conn.SetReadLimit(maxInboundSize)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump delivers payloads and keepalive pings. Only this goroutine
// writes to the connection.
func (v *Viewer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	wsType := websocket.TextMessage
	if v.hub.binary {
		wsType = websocket.BinaryMessage
	}

	for {
		select {
		case payload, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel; say goodbye properly.
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(wsType, payload); err != nil {
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
