package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmuslimabdulj/inscribe/internal/domain"
	"github.com/mmuslimabdulj/inscribe/internal/logger"
	"github.com/mmuslimabdulj/inscribe/internal/repository"
)

// StoreFailurePolicy decides what happens when the store fails during Resolve
type StoreFailurePolicy int

const (
	// Degrade keeps the connection with an in-memory identity
	Degrade StoreFailurePolicy = iota
	// Reject refuses the connection
	Reject
)

// SessionRegistry maps connection ids to users for as long as they are connected
type SessionRegistry struct {
	users    repository.UserRepository
	personas *PersonaGenerator
	policy   StoreFailurePolicy
	log      *slog.Logger

	mu     sync.Mutex
	active map[string]*domain.User
	order  []string // join order
}

func NewSessionRegistry(users repository.UserRepository, personas *PersonaGenerator, policy StoreFailurePolicy, log *slog.Logger) *SessionRegistry {
	return &SessionRegistry{
		users:    users,
		personas: personas,
		policy:   policy,
		log:      log,
		active:   make(map[string]*domain.User),
	}
}

// Resolve loads the persisted user for id or creates and persists a new one.
// Store failures follow the registry policy; an expired ctx always fails.
func (r *SessionRegistry) Resolve(ctx context.Context, id string) (*domain.User, error) {
	const op = "usecase.session.resolve"
	log := r.log.With(slog.String("op", op), slog.String("conn_id", id))

	user, err := r.users.GetByID(ctx, id)
	switch {
	case err == nil:
		return r.refresh(ctx, log, user)
	case errors.Is(err, repository.ErrUserNotFound):
		return r.create(ctx, log, id)
	case ctx.Err() != nil:
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	case r.policy == Reject:
		return nil, fmt.Errorf("%s: %w", op, err)
	default:
		log.Warn("store unavailable, continuing in memory", logger.Err(err))
		return r.personas.Generate(id), nil
	}
}

func (r *SessionRegistry) refresh(ctx context.Context, log *slog.Logger, user *domain.User) (*domain.User, error) {
	if !r.personas.Reserve(user.Name) {
		// Name held by another active session: rename silently
		renamed := r.personas.Generate(user.ID)
		log.Info("renamed duplicate user", slog.String("from", user.Name), slog.String("to", renamed.Name))
		user.Name = renamed.Name
	}
	user.LastActive = time.Now().UTC()

	if err := r.users.Update(ctx, user); err != nil {
		if failed := r.storeFailed(ctx, log, err); failed != nil {
			r.personas.Release(user.Name)
			return nil, failed
		}
	}
	return user, nil
}

func (r *SessionRegistry) create(ctx context.Context, log *slog.Logger, id string) (*domain.User, error) {
	user := r.personas.Generate(id)

	if err := r.users.Create(ctx, user); err != nil {
		if failed := r.storeFailed(ctx, log, err); failed != nil {
			r.personas.Release(user.Name)
			return nil, failed
		}
		return user, nil
	}

	log.Debug("created user", slog.String("name", user.Name))
	return user, nil
}

// storeFailed returns nil when the policy lets the caller continue
func (r *SessionRegistry) storeFailed(ctx context.Context, log *slog.Logger, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if r.policy == Reject {
		return err
	}
	log.Warn("failed to persist user, continuing in memory", logger.Err(err))
	return nil
}

// Activate adds a resolved user to the active set
func (r *SessionRegistry) Activate(user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[user.ID]; !ok {
		r.order = append(r.order, user.ID)
	}
	r.active[user.ID] = user
}

// Deactivate removes id from the active set.
// Only the first call for a given id returns true.
func (r *SessionRegistry) Deactivate(id string) (*domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.active[id]
	if !ok {
		return nil, false
	}
	delete(r.active, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.personas.Release(user.Name)
	return user, true
}

// Abandon releases the name of a resolved user that never became active.
// Another session active under the same id keeps its name.
func (r *SessionRegistry) Abandon(user *domain.User) {
	r.mu.Lock()
	current, active := r.active[user.ID]
	r.mu.Unlock()

	if !active || (current != user && current.Name != user.Name) {
		r.personas.Release(user.Name)
	}
}

// Lookup returns the active user for id
func (r *SessionRegistry) Lookup(id string) (*domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.active[id]
	return user, ok
}

// Touch persists the current time as last activity of id
func (r *SessionRegistry) Touch(ctx context.Context, id string) error {
	now := time.Now().UTC()

	r.mu.Lock()
	if user, ok := r.active[id]; ok {
		user.LastActive = now
	}
	r.mu.Unlock()

	if err := r.users.Touch(ctx, id, now); err != nil {
		return fmt.Errorf("touch %s: %w", id, err)
	}
	return nil
}

// ActiveUsers returns the connected users in join order
func (r *SessionRegistry) ActiveUsers() []domain.UserInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.UserInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.active[id].Info())
	}
	return out
}

// Count returns the number of connected users
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
