package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/mmuslimabdulj/inscribe/internal/domain"
	"github.com/mmuslimabdulj/inscribe/internal/logger"
)

func defaultHandlers() map[domain.MessageType]handlerFunc {
	return map[domain.MessageType]handlerFunc{
		domain.MessageTypeDraw: (*Hub).handleDraw,
		domain.MessageTypeChat: (*Hub).handleChat,
	}
}

// handleDraw records a sanitized stroke sample and relays it to everyone but the sender
func (h *Hub) handleDraw(c *Client, payload json.RawMessage) {
	ev, err := ParseDrawEvent(payload)
	if err != nil {
		h.log.Warn("invalid drawing data", slog.String("conn_id", c.ID), logger.Err(err))
		return
	}
	ev.UserID = c.ID
	ev.CreatedAt = time.Now().UTC()

	h.history.Push(ev)

	if h.opts.PersistDrawings && h.store != nil && h.store.Drawings != nil {
		drawings := h.store.Drawings
		h.persist(Job{Name: "save_drawing", Run: func(ctx context.Context) error {
			return drawings.Create(ctx, &ev)
		}})
	}

	data, err := domain.Encode(domain.MessageTypeDraw, ev)
	if err != nil {
		h.log.Error("encode drawing", logger.Err(err))
		return
	}
	h.broadcastExcept(c.ID, data)
}

// handleChat relays a sanitized chat line to every client, sender included
func (h *Hub) handleChat(c *Client, payload json.RawMessage) {
	text, err := ParseChatMessage(payload, h.opts.MaxChatLength)
	switch {
	case errors.Is(err, ErrMessageTooLong):
		h.log.Warn("chat message too long", slog.String("conn_id", c.ID))
		h.notifyError(c, fmt.Sprintf("Message must be between 1 and %d characters", h.opts.MaxChatLength))
		return
	case err != nil:
		h.log.Warn("invalid chat message", slog.String("conn_id", c.ID), logger.Err(err))
		return
	}

	// Authorship comes from the registry, never from the payload
	user, ok := h.sessions.Lookup(c.ID)
	if !ok {
		return
	}
	msg := domain.NewChatMessage(user, text)

	if h.opts.PersistChat && h.store != nil && h.store.Chats != nil {
		chats := h.store.Chats
		h.persist(Job{Name: "save_chat", Run: func(ctx context.Context) error {
			return chats.Create(ctx, msg)
		}})
	}

	h.log.Info("chat message",
		slog.String("conn_id", c.ID),
		slog.String("name", user.Name),
		slog.Int("length", utf8.RuneCountInString(text)),
	)

	data, err := domain.Encode(domain.MessageTypeChat, msg)
	if err != nil {
		h.log.Error("encode chat", logger.Err(err))
		return
	}
	h.broadcastAll(data)
}
