package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/inscribe/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Notice sent to a connection whose handler failed
	internalErrorNotice = "An error occurred. Please refresh the page."

	// Notice sent to a second connection for an identity that is already joined
	duplicateSessionNotice = "This session is already open in another tab."
)

// Client represents a single websocket connection
type Client struct {
	ID      string
	User    *domain.User
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	log     *slog.Logger

	token string // reconnect token, sent after the snapshot
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, user *domain.User) *Client {
	return &Client{
		ID:      user.ID,
		User:    user,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.opts.SendBufferSize),
		limiter: rate.NewLimiter(hub.opts.EventRate, hub.opts.EventBurst),
		log:     hub.log.With(slog.String("conn_id", user.ID)),
	}
}

// ReadPump pumps messages from the websocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("connection handler panicked", slog.String("panic", fmt.Sprint(r)))
			c.hub.notifyError(c, internalErrorNotice)
		}
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(c.hub.opts.MaxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("connection closed unexpectedly", slog.String("error", err.Error()))
			}
			break
		}

		c.handleFrame(message)
	}
}

// handleFrame parses one frame and hands it to the hub
func (c *Client) handleFrame(frame []byte) {
	if !c.limiter.Allow() {
		c.log.Debug("event rate exceeded, dropping")
		return
	}

	var msg domain.Message
	if err := json.Unmarshal(frame, &msg); err != nil || msg.Type == "" {
		c.log.Warn("malformed frame")
		return
	}

	c.hub.Dispatch(c, msg)
}

// WritePump pumps messages from the hub to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("write pump panicked", slog.String("panic", fmt.Sprint(r)))
		}
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues msg without blocking and reports whether it fit
func (c *Client) trySend(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
