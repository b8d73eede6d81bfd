package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmuslimabdulj/inscribe/internal/domain"
	"github.com/mmuslimabdulj/inscribe/internal/repository/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenPostgres connects, migrates and verifies the database behind dsn
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&model.User{}, &model.Drawing{}, &model.ChatMessage{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{
		Users:    NewPostgresUserRepository(db),
		Drawings: NewPostgresDrawingRepository(db),
		Chats:    NewPostgresChatRepository(db),
		closer:   sqlDB.Close,
	}, nil
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return ErrNilRecord
	}

	if err := r.db.WithContext(ctx).Create(toModelUser(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return ErrNilRecord
	}

	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":        user.Name,
			"color":       user.Color,
			"last_active": user.LastActive,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("last_active", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

type PostgresDrawingRepository struct {
	db *gorm.DB
}

func NewPostgresDrawingRepository(db *gorm.DB) *PostgresDrawingRepository {
	return &PostgresDrawingRepository{db: db}
}

func (r *PostgresDrawingRepository) Create(ctx context.Context, event *domain.DrawEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event == nil {
		return ErrNilRecord
	}
	return r.db.WithContext(ctx).Create(toModelDrawing(event)).Error
}

func (r *PostgresDrawingRepository) Latest(ctx context.Context, limit int) ([]domain.DrawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Drawing
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// newest-first from the query, oldest-first for replay
	events := make([]domain.DrawEvent, len(rows))
	for i := range rows {
		events[len(rows)-1-i] = toDomainDrawing(&rows[i])
	}
	return events, nil
}

type PostgresChatRepository struct {
	db *gorm.DB
}

func NewPostgresChatRepository(db *gorm.DB) *PostgresChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg == nil {
		return ErrNilRecord
	}
	return r.db.WithContext(ctx).Create(toModelChat(msg)).Error
}

func toModelUser(u *domain.User) *model.User {
	return &model.User{
		ID:         u.ID,
		Name:       u.Name,
		Color:      u.Color,
		LastActive: u.LastActive,
	}
}

func toDomainUser(m *model.User) *domain.User {
	return &domain.User{
		ID:         m.ID,
		Name:       m.Name,
		Color:      m.Color,
		LastActive: m.LastActive,
	}
}

func toModelDrawing(e *domain.DrawEvent) *model.Drawing {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &model.Drawing{
		ID:        uuid.New(),
		X:         e.X,
		Y:         e.Y,
		Color:     e.Color,
		Size:      e.Size,
		Type:      e.Type,
		Start:     e.Start,
		UserID:    e.UserID,
		CreatedAt: createdAt,
	}
}

func toDomainDrawing(m *model.Drawing) domain.DrawEvent {
	return domain.DrawEvent{
		X:         m.X,
		Y:         m.Y,
		Color:     m.Color,
		Size:      m.Size,
		Type:      m.Type,
		Start:     m.Start,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	}
}

func toModelChat(c *domain.ChatMessage) *model.ChatMessage {
	return &model.ChatMessage{
		ID:        uuid.New(),
		UserID:    c.UserID,
		UserName:  c.UserName,
		UserColor: c.UserColor,
		Message:   c.Message,
		CreatedAt: c.Timestamp,
	}
}
