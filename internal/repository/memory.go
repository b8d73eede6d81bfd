package repository

import (
	"context"
	"sync"
	"time"

	"github.com/mmuslimabdulj/inscribe/internal/domain"
)

// NewMemoryStore builds a Store whose data lives for the process lifetime
func NewMemoryStore() *Store {
	return &Store{
		Users:    NewInMemoryUserRepository(),
		Drawings: NewInMemoryDrawingRepository(),
		Chats:    NewInMemoryChatRepository(),
	}
}

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return ErrNilRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return ErrUserExists
	}
	r.users[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return ErrNilRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.LastActive = at
	r.users[id] = user
	return nil
}

type InMemoryDrawingRepository struct {
	mu     sync.RWMutex
	events []domain.DrawEvent
}

func NewInMemoryDrawingRepository() *InMemoryDrawingRepository {
	return &InMemoryDrawingRepository{}
}

func (r *InMemoryDrawingRepository) Create(ctx context.Context, event *domain.DrawEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event == nil {
		return ErrNilRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *InMemoryDrawingRepository) Latest(ctx context.Context, limit int) ([]domain.DrawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	start := 0
	if limit >= 0 && len(r.events) > limit {
		start = len(r.events) - limit
	}
	out := make([]domain.DrawEvent, len(r.events)-start)
	copy(out, r.events[start:])
	return out, nil
}

type InMemoryChatRepository struct {
	mu       sync.RWMutex
	messages []domain.ChatMessage
}

func NewInMemoryChatRepository() *InMemoryChatRepository {
	return &InMemoryChatRepository{}
}

func (r *InMemoryChatRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg == nil {
		return ErrNilRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *msg)
	return nil
}

// Count returns the number of stored messages
func (r *InMemoryChatRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}
