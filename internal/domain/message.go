package domain

import "encoding/json"

// MessageType names an event on the websocket channel
type MessageType string

const (
	// Client -> server (draw and chat are also echoed server -> client)
	MessageTypeDraw MessageType = "draw"
	MessageTypeChat MessageType = "chatMessage"

	// Server -> client
	MessageTypeInit       MessageType = "init"
	MessageTypeUserJoined MessageType = "userJoined"
	MessageTypeUserLeft   MessageType = "userLeft"
	MessageTypeError      MessageType = "error"
	MessageTypeSession    MessageType = "session" // reconnect token
)

// Message is the envelope of every websocket frame
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// InitPayload is the snapshot pushed to a newly joined connection
type InitPayload struct {
	Users          []UserInfo  `json:"users"`
	DrawingHistory []DrawEvent `json:"drawingHistory"`
}

// UserLeftPayload announces a departure
type UserLeftPayload struct {
	ID string `json:"id"`
}

// ErrorPayload is a notice addressed to a single connection
type ErrorPayload struct {
	Message string `json:"message"`
}

// SessionPayload carries the token a client presents to reclaim its identity
type SessionPayload struct {
	Token string `json:"token"`
}

// Encode wraps payload in an envelope of the given type
func Encode(t MessageType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: t, Payload: raw})
}
