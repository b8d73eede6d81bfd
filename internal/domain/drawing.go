package domain

import "time"

// DrawEvent is a single sanitized pointer sample on the shared canvas
type DrawEvent struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
	Type  string  `json:"type"`
	Start bool    `json:"start,omitempty"` // pen-down marker

	// Authorship and time are kept for storage only
	UserID    string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}
