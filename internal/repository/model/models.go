package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         string    `gorm:"size:64;primaryKey"`
	Name       string    `gorm:"size:255;not null;default:Anonymous"`
	Color      string    `gorm:"size:32;not null;default:#000000"`
	LastActive time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Drawing struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	X         float64   `gorm:"not null"`
	Y         float64   `gorm:"not null"`
	Color     string    `gorm:"size:32;not null"`
	Size      float64   `gorm:"not null"`
	Type      string    `gorm:"size:32;not null"`
	Start     bool      `gorm:"not null;default:false"`
	UserID    string    `gorm:"size:64;index;not null"`
	CreatedAt time.Time `gorm:"index;not null"`
}

type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"size:64;index;not null"`
	UserName  string    `gorm:"size:255;not null"`
	UserColor string    `gorm:"size:32;not null"`
	Message   string    `gorm:"size:4096;not null"`
	CreatedAt time.Time `gorm:"index;not null"`
}
