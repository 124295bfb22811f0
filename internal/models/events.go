package models

import (
	"time"

	"github.com/google/uuid"
)

// WebSocket message types pushed to connected clients of a user.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSMessageCommitted = "message_committed"
	WSChatUpdated      = "chat_updated"
)

// MessageCommittedEvent announces a durably persisted message (user or
// assistant) so other devices of the same user can append it live.
type MessageCommittedEvent struct {
	ChatID  uuid.UUID `json:"chat_id"`
	Message Message   `json:"message"`
}

// ChatUpdatedEvent announces chat metadata changes (title, updated_at) so
// sidebars can re-sort without a full reload.
type ChatUpdatedEvent struct {
	ChatID    uuid.UUID `json:"chat_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// API Error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
