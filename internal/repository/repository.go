package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mmuslimabdulj/inscribe/internal/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrNilRecord    = errors.New("record is nil")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Touch(ctx context.Context, id string, at time.Time) error
}

type DrawingRepository interface {
	Create(ctx context.Context, event *domain.DrawEvent) error
	// Latest returns up to limit newest events, oldest first
	Latest(ctx context.Context, limit int) ([]domain.DrawEvent, error)
}

type ChatRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
}

// Store groups the repositories behind one connection
type Store struct {
	Users    UserRepository
	Drawings DrawingRepository
	Chats    ChatRepository
	closer   func() error
}

// Close releases the underlying connection, if any
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
