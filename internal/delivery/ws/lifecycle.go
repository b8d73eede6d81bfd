package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/inscribe/internal/domain"
	"github.com/mmuslimabdulj/inscribe/internal/logger"
)

var (
	ErrJoinTimeout = errors.New("join timed out")
	ErrHubStopped  = errors.New("hub stopped")
)

type resolveResult struct {
	user *domain.User
	err  error
}

// SetSessionStore enables reconnect tokens
func (h *Hub) SetSessionStore(tokens *SessionStore) {
	h.tokens = tokens
}

// Connect resolves the identity for a freshly upgraded connection and registers it.
// Resolution races the join timeout; if the timer wins the socket is closed and
// no snapshot is sent. token, if valid, reclaims a previous identity.
func (h *Hub) Connect(conn *websocket.Conn, token string) error {
	id := h.connectionID(token)
	log := h.log.With(slog.String("op", "ws.connect"), slog.String("conn_id", id))

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.JoinTimeout)
	defer cancel()

	done := make(chan resolveResult, 1)
	go func() {
		user, err := h.sessions.Resolve(ctx, id)
		done <- resolveResult{user: user, err: err}
	}()

	var res resolveResult
	select {
	case res = <-done:
	case <-ctx.Done():
		go h.abandonLate(done)
		log.Warn("connection timeout")
		closeWith(conn, websocket.ClosePolicyViolation, "join timeout")
		return ErrJoinTimeout
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			log.Warn("connection timeout")
			closeWith(conn, websocket.ClosePolicyViolation, "join timeout")
			return ErrJoinTimeout
		}
		log.Error("error in socket connection", logger.Err(res.err))
		rejectWith(conn, internalErrorNotice)
		return fmt.Errorf("resolve user: %w", res.err)
	}

	client := NewClient(h, conn, res.user)
	if h.tokens != nil {
		client.token = h.tokens.GenerateToken(id)
	}
	if !h.Register(client) {
		h.sessions.Abandon(res.user)
		closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		return ErrHubStopped
	}

	go client.WritePump()
	go client.ReadPump()
	return nil
}

// connectionID reuses the identity behind a valid token unless it is already connected.
// join makes the final check, since two handshakes can race past this one.
func (h *Hub) connectionID(token string) string {
	if token != "" && h.tokens != nil {
		if id, ok := h.tokens.ValidateToken(token); ok {
			if _, active := h.sessions.Lookup(id); !active {
				return id
			}
		}
	}
	return uuid.NewString()
}

// abandonLate releases an identity resolved after its join timed out
func (h *Hub) abandonLate(done <-chan resolveResult) {
	if res := <-done; res.err == nil {
		h.sessions.Abandon(res.user)
	}
}

// rejectWith sends an error notice and closes a connection that never joined
func rejectWith(conn *websocket.Conn, message string) {
	if data, err := domain.Encode(domain.MessageTypeError, domain.ErrorPayload{Message: message}); err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, data)
	}
	closeWith(conn, websocket.CloseInternalServerErr, "")
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	conn.Close()
}
