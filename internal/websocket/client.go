package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	TypeSubscribed = "subscribed"
)

// Client is one websocket subscriber of a chat session. The hub owns Send
// and closes it on unregister.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	SessionID string
	Send      chan []byte

	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	return &Client{Hub: hub, Conn: conn, SessionID: sessionID, Send: make(chan []byte, sendQueueSize)}
}

// subscribedFrame is queued before registration so it is always the first frame.
func (c *Client) subscribedFrame() {
	raw, err := json.Marshal(Message{Type: TypeSubscribed, SessionID: c.SessionID, Data: map[string]string{"session_id": c.SessionID}})
	if err != nil {
		return
	}
	select {
	case c.Send <- raw:
	default:
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}

func (c *Client) write(kind int, payload []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(kind, payload)
}

// readPump drains control frames; subscribers never send commands.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Debug(moduleName, "Unexpected close", map[string]interface{}{"session": c.SessionID, "error": err.Error()})
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
