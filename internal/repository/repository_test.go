package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mmuslimabdulj/inscribe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		user := domain.NewUser("c1", "User1234", "#FF6B6B")

		require.NoError(t, repo.Create(ctx, user))

		got, err := repo.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "User1234", got.Name)
		assert.Equal(t, "#FF6B6B", got.Color)
	})

	t.Run("duplicate create", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		user := domain.NewUser("c1", "User1234", "#FF6B6B")

		require.NoError(t, repo.Create(ctx, user))
		assert.ErrorIs(t, repo.Create(ctx, user), ErrUserExists)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := NewInMemoryUserRepository()

		_, err := repo.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.ErrorIs(t, repo.Touch(ctx, "nope", time.Now()), ErrUserNotFound)
		assert.ErrorIs(t, repo.Update(ctx, domain.NewUser("nope", "n", "c")), ErrUserNotFound)
	})

	t.Run("touch updates last active", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		require.NoError(t, repo.Create(ctx, domain.NewUser("c1", "n", "c")))

		at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Touch(ctx, "c1", at))

		got, err := repo.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, got.LastActive.Equal(at))
	})

	t.Run("returned copies are detached", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		require.NoError(t, repo.Create(ctx, domain.NewUser("c1", "n", "c")))

		got, _ := repo.GetByID(ctx, "c1")
		got.Name = "changed"

		again, _ := repo.GetByID(ctx, "c1")
		assert.Equal(t, "n", again.Name)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := NewInMemoryUserRepository()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := repo.GetByID(cctx, "c1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestInMemoryDrawingRepository_Latest(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryDrawingRepository()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &domain.DrawEvent{X: float64(i)}))
	}

	latest, err := repo.Latest(ctx, 3)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, []float64{2, 3, 4}, []float64{latest[0].X, latest[1].X, latest[2].X})

	all, err := repo.Latest(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestInMemoryChatRepository(t *testing.T) {
	repo := NewInMemoryChatRepository()
	user := domain.NewUser("c1", "n", "c")

	require.NoError(t, repo.Create(context.Background(), domain.NewChatMessage(user, "hi")))
	assert.ErrorIs(t, repo.Create(context.Background(), nil), ErrNilRecord)
	assert.Equal(t, 1, repo.Count())
}

func TestModelConversions(t *testing.T) {
	at := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	event := &domain.DrawEvent{X: 1, Y: 2, Color: "#fff", Size: 3, Type: "eraser", Start: true, UserID: "c1", CreatedAt: at}

	row := toModelDrawing(event)
	assert.NotEqual(t, uuid.Nil, row.ID)
	assert.Equal(t, *event, toDomainDrawing(row))

	user := &domain.User{ID: "c1", Name: "n", Color: "#000", LastActive: at}
	assert.Equal(t, user, toDomainUser(toModelUser(user)))

	chat := &domain.ChatMessage{UserID: "c1", UserName: "n", UserColor: "#000", Message: "m", Timestamp: at}
	cm := toModelChat(chat)
	assert.Equal(t, at, cm.CreatedAt)
	assert.Equal(t, "m", cm.Message)
}

func TestToModelDrawing_DefaultsCreatedAt(t *testing.T) {
	row := toModelDrawing(&domain.DrawEvent{})
	assert.False(t, row.CreatedAt.IsZero())
}

func TestOpenPostgres_EmptyDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "")
	assert.Error(t, err)
}

func TestStore_CloseWithoutCloser(t *testing.T) {
	assert.NoError(t, NewMemoryStore().Close())
}
