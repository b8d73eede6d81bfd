package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/time/rate"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Policies applied when the store fails while a client is connecting
const (
	StoreFailureDegrade = "degrade"
	StoreFailureReject  = "reject"
)

// Config holds all application configuration
type Config struct {
	// Server
	Env       string `env:"ENV" env-default:"local"` // local, dev, prod
	Port      string `env:"PORT" env-default:"3000"`
	StaticDir string `env:"STATIC_DIR" env-default:"./public"`

	// Security
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`

	// Rate Limiting
	RateLimitAPI         float64 `env:"RATE_LIMIT_API" env-default:"10"`
	RateLimitAPIBurst    int     `env:"RATE_LIMIT_API_BURST" env-default:"20"`
	RateLimitWS          float64 `env:"RATE_LIMIT_WS" env-default:"5"`
	RateLimitWSBurst     int     `env:"RATE_LIMIT_WS_BURST" env-default:"10"`
	RateLimitEvents      float64 `env:"RATE_LIMIT_EVENTS" env-default:"120"`
	RateLimitEventsBurst int     `env:"RATE_LIMIT_EVENTS_BURST" env-default:"240"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" env-default:"info"` // debug, info, warn, error, silent

	// WebSocket
	MaxMessageSize int           `env:"MAX_MESSAGE_SIZE" env-default:"4096"`
	MaxHistorySize int           `env:"MAX_HISTORY_SIZE" env-default:"100"`
	SendBufferSize int           `env:"SEND_BUFFER_SIZE" env-default:"256"`
	JoinTimeout    time.Duration `env:"JOIN_TIMEOUT" env-default:"30s"`
	SessionTTL     time.Duration `env:"SESSION_TTL" env-default:"24h"`

	// Store
	StoreDriver        string        `env:"STORE_DRIVER" env-default:"postgres"`
	DatabaseURL        string        `env:"DATABASE_URL"`
	StoreFailurePolicy string        `env:"STORE_FAILURE_POLICY" env-default:"degrade"`
	StoreTimeout       time.Duration `env:"STORE_TIMEOUT" env-default:"5s"`
	PersistDrawings    bool          `env:"PERSIST_DRAWINGS" env-default:"true"`
	PersistChat        bool          `env:"PERSIST_CHAT" env-default:"false"`
	PersistQueueSize   int           `env:"PERSIST_QUEUE_SIZE" env-default:"1024"`

	// Shutdown
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" env-default:"5s"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Env:                  "local",
		Port:                 "3000",
		StaticDir:            "./public",
		AllowedOrigins:       []string{"http://localhost:3000"},
		RateLimitAPI:         10,
		RateLimitAPIBurst:    20,
		RateLimitWS:          5,
		RateLimitWSBurst:     10,
		RateLimitEvents:      120,
		RateLimitEventsBurst: 240,
		LogLevel:             "info",
		MaxMessageSize:       4096,
		MaxHistorySize:       100,
		SendBufferSize:       256,
		JoinTimeout:          30 * time.Second,
		SessionTTL:           24 * time.Hour,
		StoreDriver:          StoreDriverPostgres,
		StoreFailurePolicy:   StoreFailureDegrade,
		StoreTimeout:         5 * time.Second,
		PersistDrawings:      true,
		PersistQueueSize:     1024,
		ShutdownGrace:        5 * time.Second,
	}
}

// LoadFromEnv loads configuration from environment variables.
// A value that does not parse is an error; parsed values out of range fall back to defaults.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// normalize replaces out-of-range values with defaults
func (c *Config) normalize() {
	def := DefaultConfig()

	c.AllowedOrigins = parseOrigins(strings.Join(c.AllowedOrigins, ","))
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = def.AllowedOrigins
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.MaxHistorySize <= 0 {
		c.MaxHistorySize = def.MaxHistorySize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = def.SendBufferSize
	}
	if c.PersistQueueSize <= 0 {
		c.PersistQueueSize = def.PersistQueueSize
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = def.JoinTimeout
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = def.SessionTTL
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = def.StoreTimeout
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = def.ShutdownGrace
	}
	if c.RateLimitAPI <= 0 {
		c.RateLimitAPI = def.RateLimitAPI
	}
	if c.RateLimitWS <= 0 {
		c.RateLimitWS = def.RateLimitWS
	}
	if c.RateLimitEvents <= 0 {
		c.RateLimitEvents = def.RateLimitEvents
	}
	if c.RateLimitAPIBurst <= 0 {
		c.RateLimitAPIBurst = def.RateLimitAPIBurst
	}
	if c.RateLimitWSBurst <= 0 {
		c.RateLimitWSBurst = def.RateLimitWSBurst
	}
	if c.RateLimitEventsBurst <= 0 {
		c.RateLimitEventsBurst = def.RateLimitEventsBurst
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		c.StoreDriver = def.StoreDriver
	}
	switch c.StoreFailurePolicy {
	case StoreFailureDegrade, StoreFailureReject:
	default:
		c.StoreFailurePolicy = def.StoreFailurePolicy
	}
}

// APILimit returns the per-IP request rate for the HTTP API
func (c *Config) APILimit() rate.Limit {
	return rate.Limit(c.RateLimitAPI)
}

// WSLimit returns the per-IP websocket handshake rate
func (c *Config) WSLimit() rate.Limit {
	return rate.Limit(c.RateLimitWS)
}

// EventLimit returns the per-connection inbound event rate
func (c *Config) EventLimit() rate.Limit {
	return rate.Limit(c.RateLimitEvents)
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
