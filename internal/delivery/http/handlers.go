package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/inscribe/internal/delivery/ws"
	"github.com/mmuslimabdulj/inscribe/internal/logger"
	"github.com/mmuslimabdulj/inscribe/view/pages"
)

const appTitle = "Inscribe"

type Handler struct {
	hub      *ws.Hub
	origins  []string
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(hub *ws.Hub, allowedOrigins []string, log *slog.Logger) *Handler {
	h := &Handler{
		hub:     hub,
		origins: allowedOrigins,
		log:     log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.isOriginAllowed(r.Header.Get("Origin"))
		},
	}
	return h
}

// isOriginAllowed checks if the origin is in the allowed list
func (h *Handler) isOriginAllowed(origin string) bool {
	// Empty origin is allowed (same-origin requests)
	if origin == "" {
		return true
	}

	for _, allowed := range h.origins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// HandleWelcome reports that the API is up
func (h *Handler) HandleWelcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "Welcome to Inscribe API",
		"status":      "ok",
		"activeUsers": h.hub.ClientCount(),
	})
}

// HandleShell serves the single-page app for every other route
func (h *Handler) HandleShell(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Header("Pragma", "no-cache")
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)

	if err := pages.Shell(appTitle).Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("render shell", logger.Err(err))
	}
}

// HandleWebSocket upgrades the connection and hands it to the hub.
// An optional ?token= reclaims the identity of an earlier session.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.String("origin", r.Header.Get("Origin")), logger.Err(err))
		return
	}

	if err := h.hub.Connect(conn, r.URL.Query().Get("token")); err != nil {
		h.log.Debug("connection not established", logger.Err(err))
	}
}
