package websocket

import (
	"sync"
	"time"

	"gator-social/internal/models"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxControlSize = 4096
	sendBuffer     = 256
)

// Control is the only inbound frame a client may send. An empty subscription
// set means every space.
type Control struct {
	Action string           `json:"action"` // "subscribe" | "unsubscribe" | "reset"
	Spaces []models.SpaceID `json:"spaces"`
}

// Client is one event stream for one account.
type Client struct {
	Hub     *Hub
	Account uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte

	mu     sync.RWMutex
	spaces map[models.SpaceID]bool
}

func NewClient(hub *Hub, account uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		Hub:     hub,
		Account: account,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		spaces:  map[models.SpaceID]bool{},
	}
}

// Wants reports whether an event about space should reach this client.
// Events without a space always do.
func (c *Client) Wants(space models.SpaceID) bool {
	if space == 0 {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.spaces) == 0 || c.spaces[space]
}

// Apply updates the subscription set. Unknown actions are ignored.
func (c *Client) Apply(ctl Control) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ctl.Action {
	case "subscribe":
		for _, id := range ctl.Spaces {
			c.spaces[id] = true
		}
	case "unsubscribe":
		for _, id := range ctl.Spaces {
			delete(c.spaces, id)
		}
	case "reset":
		c.spaces = map[models.SpaceID]bool{}
	}
}

// ReadPump consumes control frames until the peer goes away, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxControlSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Debug("WebSocket read error", zap.Stringer("account", c.Account), zap.Error(err))
			}
			return
		}
		var ctl Control
		if err := sonic.Unmarshal(frame, &ctl); err != nil {
			c.Hub.logger.Debug("Ignoring malformed control frame", zap.Stringer("account", c.Account), zap.Error(err))
			continue
		}
		c.Apply(ctl)
	}
}

// WritePump writes one event per text frame and keeps the connection alive
// with pings. It exits when the hub closes Send.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.Hub.logger.Debug("WebSocket write error", zap.Stringer("account", c.Account), zap.Error(err))
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
