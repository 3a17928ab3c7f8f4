package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cinereview/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must stay below pongWait
	maxMessageSize = 4096
	sendBuffer     = 256

	// Inbound control frames a moderator may send per second, with burst.
	inboundPerSecond = 1
	inboundBurst     = 10
)

// Client is one moderator connection to the live feed.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	userID      string
	role        models.Role
	connectedAt time.Time
	inbound     *rate.Limiter
}

// NewClient wraps an upgraded connection for the given moderator.
func NewClient(hub *Hub, conn *websocket.Conn, userID string, role models.Role) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		userID:      userID,
		role:        role,
		connectedAt: time.Now(),
		inbound:     rate.NewLimiter(rate.Limit(inboundPerSecond), inboundBurst),
	}
}

// ReadPump drains the connection until it closes. The feed is
// server-to-client; the only frame a client may send is a ping event.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("moderation feed read failed", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		if !c.inbound.Allow() {
			c.sendError("rate_limited")
			continue
		}
		c.handle(data)
	}
}

// WritePump forwards queued events to the connection and keeps it alive
// with pings. It returns when the hub closes the send channel.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var (
			kind    int
			payload []byte
		)
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind, payload = websocket.TextMessage, msg
		case <-ticker.C:
			kind = websocket.PingMessage
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(kind, payload); err != nil {
			return
		}
	}
}

func (c *Client) handle(data []byte) {
	var in models.WSMessage
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("Invalid message format")
		return
	}

	if in.Event != models.EventPing {
		c.sendError("Unknown event type")
		return
	}
	c.enqueue(models.WSMessage{
		Event:   models.EventPong,
		Payload: map[string]any{"time": time.Now().UTC()},
	})
}

func (c *Client) sendError(message string) {
	c.enqueue(models.WSMessage{
		Event:   models.EventError,
		Payload: models.WSErrorPayload{Message: message},
	})
}

// enqueue drops the message when the client is gone or its buffer is full.
func (c *Client) enqueue(msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.log.Error("encode feed message", zap.String("event", msg.Event), zap.Error(err))
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
