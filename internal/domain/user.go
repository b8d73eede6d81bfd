package domain

import "time"

// User represents a whiteboard participant
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"` // hex palette color
	LastActive time.Time `json:"-"`
}

// UserInfo is the public projection of a User sent to clients
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// NewUser creates a User bound to the given connection id
func NewUser(id, name, color string) *User {
	return &User{
		ID:         id,
		Name:       name,
		Color:      color,
		LastActive: time.Now().UTC(),
	}
}

// Info returns the public fields of the user
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Name: u.Name, Color: u.Color}
}
