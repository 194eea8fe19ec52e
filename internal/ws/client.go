package ws

import (
	"encoding/json"
	"sync"
	"time"

	"karya/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

type Client struct {
	OwnerID string
	Conn    *websocket.Conn
	Send    chan []byte

	Hub       *Hub
	closeOnce sync.Once
}

func NewClient(ownerID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		OwnerID: ownerID,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		Hub:     hub,
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// Run registers the client, sends the ready handshake and pumps frames until
// the peer goes away.
func (c *Client) Run() {
	c.Hub.Register(c)
	go c.writePump()

	ready, _ := json.Marshal(Envelope{Type: MsgReady})
	c.Send <- ready

	c.readPump()
}

// readPump only answers pings; reminders flow one way.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "owner_id", c.OwnerID, "error", err)
			}
			return
		}

		var in Envelope
		if json.Unmarshal(msg, &in) == nil && in.Type == MsgPing {
			pong, _ := json.Marshal(Envelope{Type: MsgPong})
			select {
			case c.Send <- pong:
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "owner_id", c.OwnerID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
