package ws

import "github.com/mmuslimabdulj/inscribe/internal/domain"

// Register adds a client to the hub. It returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client from the hub; repeated calls are no-ops
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Dispatch queues an event from c for the hub loop
func (h *Hub) Dispatch(c *Client, msg domain.Message) {
	select {
	case h.inbound <- inbound{client: c, msg: msg}:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HistoryLen returns the number of drawing events held for replay
func (h *Hub) HistoryLen() int {
	return h.history.Len()
}
