package domain

import "time"

// ==== WebSocket Constants ====

// MaxMessageSize is the maximum allowed WebSocket message size in bytes
const MaxMessageSize = 4096

// MaxHistorySize is the default number of drawing events replayed to new clients
const MaxHistorySize = 100

// SendBufferSize is the default outbound queue depth per connection
const SendBufferSize = 256

// ==== Drawing Constants ====

const (
	// MinStrokeSize and MaxStrokeSize bound the brush size of a draw event
	MinStrokeSize = 1
	MaxStrokeSize = 50

	// DefaultStrokeSize is used when the client sends no usable size
	DefaultStrokeSize = 5

	// DefaultStrokeColor is used when the client sends no color
	DefaultStrokeColor = "#000000"

	// DefaultDrawType tags events that carry no tool/type
	DefaultDrawType = "draw"
)

// ==== Chat Constants ====

// MaxChatLength is the maximum chat message length in runes
const MaxChatLength = 500

// ==== Rate Limit Constants ====

const (
	// DefaultRateLimitAPI is the default rate limit for API endpoints (requests/sec)
	DefaultRateLimitAPI = 10

	// DefaultRateLimitWS is the default rate limit for WebSocket connections (req/sec)
	DefaultRateLimitWS = 5

	// DefaultRateLimitEvents is the default inbound event rate per connection (events/sec)
	DefaultRateLimitEvents = 120

	// DefaultRateLimitEventsBurst is the burst allowance for inbound events
	DefaultRateLimitEventsBurst = 240
)

// ==== Timing Constants ====

const (
	// JoinTimeout bounds identity resolution during the websocket handshake
	JoinTimeout = 30 * time.Second

	// StoreTimeout bounds a single background store write
	StoreTimeout = 5 * time.Second

	// ShutdownGracePeriod is the time allowed for graceful shutdown before a forced exit
	ShutdownGracePeriod = 5 * time.Second
)
