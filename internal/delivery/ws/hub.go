package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmuslimabdulj/inscribe/internal/domain"
	"github.com/mmuslimabdulj/inscribe/internal/logger"
	"github.com/mmuslimabdulj/inscribe/internal/repository"
	"github.com/mmuslimabdulj/inscribe/internal/usecase"
	"golang.org/x/time/rate"
)

// Options tunes a Hub
type Options struct {
	HistorySize     int
	SendBufferSize  int
	MaxMessageSize  int
	MaxChatLength   int
	JoinTimeout     time.Duration
	EventRate       rate.Limit
	EventBurst      int
	PersistDrawings bool
	PersistChat     bool
}

// DefaultOptions returns the options used when a field is left zero
func DefaultOptions() Options {
	return Options{
		HistorySize:     domain.MaxHistorySize,
		SendBufferSize:  domain.SendBufferSize,
		MaxMessageSize:  domain.MaxMessageSize,
		MaxChatLength:   domain.MaxChatLength,
		JoinTimeout:     domain.JoinTimeout,
		EventRate:       domain.DefaultRateLimitEvents,
		EventBurst:      domain.DefaultRateLimitEventsBurst,
		PersistDrawings: true,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.HistorySize <= 0 {
		o.HistorySize = def.HistorySize
	}
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = def.SendBufferSize
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = def.MaxMessageSize
	}
	if o.MaxChatLength <= 0 {
		o.MaxChatLength = def.MaxChatLength
	}
	if o.JoinTimeout <= 0 {
		o.JoinTimeout = def.JoinTimeout
	}
	if o.EventRate <= 0 {
		o.EventRate = def.EventRate
	}
	if o.EventBurst <= 0 {
		o.EventBurst = def.EventBurst
	}
	return o
}

// inbound is an event received from a client, queued for the hub loop
type inbound struct {
	client *Client
	msg    domain.Message
}

// handlerFunc handles one inbound event type on the hub loop
type handlerFunc func(h *Hub, c *Client, payload json.RawMessage)

// Hub owns the connected clients and relays events between them.
// Join, leave and every inbound event run one at a time on Run's goroutine.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	log       *slog.Logger
	opts      Options
	sessions  *usecase.SessionRegistry
	history   *RingBuffer[domain.DrawEvent]
	store     *repository.Store
	persister *Persister
	tokens    *SessionStore
	handlers  map[domain.MessageType]handlerFunc

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	quit       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a new Hub. store and persister may be nil, in which case
// nothing is written to storage.
func NewHub(sessions *usecase.SessionRegistry, store *repository.Store, persister *Persister, opts Options, log *slog.Logger) *Hub {
	opts = opts.withDefaults()
	return &Hub{
		clients:    make(map[string]*Client),
		log:        log,
		opts:       opts,
		sessions:   sessions,
		history:    NewRingBuffer[domain.DrawEvent](opts.HistorySize),
		store:      store,
		persister:  persister,
		handlers:   defaultHandlers(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// LoadHistory fills the ring buffer with the newest persisted drawings
func (h *Hub) LoadHistory(ctx context.Context) error {
	if h.store == nil || h.store.Drawings == nil {
		return nil
	}

	events, err := h.store.Drawings.Latest(ctx, h.history.Cap())
	if err != nil {
		return err
	}
	for _, ev := range events {
		h.history.Push(ev)
	}

	h.log.Info("drawing history loaded", slog.Int("events", len(events)))
	return nil
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			h.join(client)

		case client := <-h.unregister:
			h.leave(client)

		case in := <-h.inbound:
			h.dispatch(in.client, in.msg)

		case <-h.quit:
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
				h.sessions.Deactivate(id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends the event loop and closes every client's send queue
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
	<-h.stopped
}

// join registers the session and pushes the snapshot to the new client.
// A client whose id is already joined is refused and its queue closed.
func (h *Hub) join(c *Client) {
	h.mu.Lock()
	if _, taken := h.clients[c.ID]; taken {
		h.mu.Unlock()
		h.refuse(c)
		return
	}
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.sessions.Activate(c.User)

	snapshot := domain.InitPayload{
		Users:          h.sessions.ActiveUsers(),
		DrawingHistory: h.history.Snapshot(),
	}
	if data, err := domain.Encode(domain.MessageTypeInit, snapshot); err == nil {
		h.sendTo(c, data)
	}
	if c.token != "" {
		if data, err := domain.Encode(domain.MessageTypeSession, domain.SessionPayload{Token: c.token}); err == nil {
			h.sendTo(c, data)
		}
	}

	if data, err := domain.Encode(domain.MessageTypeUserJoined, c.User.Info()); err == nil {
		h.broadcastExcept(c.ID, data)
	}

	h.log.Info("user connected",
		slog.String("conn_id", c.ID),
		slog.String("name", c.User.Name),
		slog.Int("users", h.ClientCount()),
	)
}

// refuse turns away a client that never joined
func (h *Hub) refuse(c *Client) {
	h.log.Warn("duplicate session refused", slog.String("conn_id", c.ID))
	h.sessions.Abandon(c.User)

	if data, err := domain.Encode(domain.MessageTypeError, domain.ErrorPayload{Message: duplicateSessionNotice}); err == nil {
		c.trySend(data)
	}
	close(c.send)
}

// leave removes the session once, queues the last-active write and announces the departure
func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	if current, ok := h.clients[c.ID]; !ok || current != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	close(c.send)
	h.mu.Unlock()

	user, ok := h.sessions.Deactivate(c.ID)
	if !ok {
		return
	}

	if h.persister != nil {
		id := c.ID
		h.persister.Enqueue(Job{Name: "touch_user", Run: func(ctx context.Context) error {
			return h.sessions.Touch(ctx, id)
		}})
	}

	if data, err := domain.Encode(domain.MessageTypeUserLeft, domain.UserLeftPayload{ID: c.ID}); err == nil {
		h.broadcastExcept(c.ID, data)
	}

	h.log.Info("user disconnected",
		slog.String("conn_id", c.ID),
		slog.String("name", user.Name),
	)
}

// dispatch routes an inbound event through the handler table
func (h *Hub) dispatch(c *Client, msg domain.Message) {
	h.mu.RLock()
	registered := h.clients[c.ID] == c
	h.mu.RUnlock()
	if !registered {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("event handler panicked",
				slog.String("conn_id", c.ID),
				slog.String("type", string(msg.Type)),
				slog.String("panic", fmt.Sprint(r)),
			)
			h.notifyError(c, internalErrorNotice)
			h.leave(c)
		}
	}()

	handler, ok := h.handlers[msg.Type]
	if !ok {
		h.log.Warn("unknown event type",
			slog.String("conn_id", c.ID),
			slog.String("type", string(msg.Type)),
		)
		return
	}
	handler(h, c, msg.Payload)
}

// persist hands a write to the persister, logging when it is refused
func (h *Hub) persist(job Job) {
	if h.persister == nil {
		return
	}
	if !h.persister.Enqueue(job) {
		h.log.Warn("write not persisted", slog.String("job", job.Name))
	}
}

// notifyError sends an error notice to a single client
func (h *Hub) notifyError(c *Client, message string) {
	data, err := domain.Encode(domain.MessageTypeError, domain.ErrorPayload{Message: message})
	if err != nil {
		h.log.Error("encode error notice", logger.Err(err))
		return
	}
	h.sendTo(c, data)
}
