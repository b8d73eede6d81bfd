package domain

import "time"

// ChatMessage is a sanitized chat line attributed to a registered session
type ChatMessage struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserColor string    `json:"userColor"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage attributes text to the given user
func NewChatMessage(user *User, text string) *ChatMessage {
	return &ChatMessage{
		UserID:    user.ID,
		UserName:  user.Name,
		UserColor: user.Color,
		Message:   text,
		Timestamp: time.Now().UTC(),
	}
}
