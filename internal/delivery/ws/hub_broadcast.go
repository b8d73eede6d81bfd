package ws

import "log/slog"

// sendTo queues data for a single client; a full queue drops the client
func (h *Hub) sendTo(c *Client, data []byte) {
	h.mu.RLock()
	_, ok := h.clients[c.ID]
	delivered := ok && c.trySend(data)
	h.mu.RUnlock()

	if ok && !delivered {
		h.dropSlow(c)
	}
}

// broadcastExcept sends data to every client but the one with senderID
func (h *Hub) broadcastExcept(senderID string, data []byte) {
	h.fanOut(data, func(c *Client) bool { return c.ID != senderID })
}

// broadcastAll sends data to every client, sender included
func (h *Hub) broadcastAll(data []byte) {
	h.fanOut(data, func(*Client) bool { return true })
}

func (h *Hub) fanOut(data []byte, include func(*Client) bool) {
	var slow []*Client

	h.mu.RLock()
	for _, c := range h.clients {
		if !include(c) {
			continue
		}
		if !c.trySend(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.dropSlow(c)
	}
}

// dropSlow disconnects a client whose send queue is full
func (h *Hub) dropSlow(c *Client) {
	h.log.Warn("send queue full, disconnecting slow client", slog.String("conn_id", c.ID))
	h.leave(c)
}
