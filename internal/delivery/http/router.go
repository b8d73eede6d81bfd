package http

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmuslimabdulj/inscribe/internal/middleware"
)

// RouterConfig carries what the router needs beyond the handler
type RouterConfig struct {
	AllowedOrigins []string
	StaticDir      string
	APILimiter     *middleware.IPRateLimiter
	WSLimiter      *middleware.IPRateLimiter
	Log            *slog.Logger
}

func SetupRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/api", middleware.RateLimitGin(cfg.APILimiter), h.HandleWelcome)
	router.GET("/ws", gin.WrapF(middleware.RateLimitFunc(cfg.WSLimiter, h.HandleWebSocket)))
	router.Static("/static", cfg.StaticDir)
	router.NoRoute(h.HandleShell)

	return router
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}
