package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultChatTitle is the placeholder title a chat carries until the first
// user/assistant pair completes and an auto-title is derived.
const DefaultChatTitle = "New Chat"

type Chat struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Title      string    `json:"title"`
	IsArchived bool      `json:"is_archived"`
	IsPinned   bool      `json:"is_pinned"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Message is one turn in a chat. IDs are store-assigned and strictly
// increasing in insertion order, which makes them the tiebreak when two
// messages share a created_at timestamp.
type Message struct {
	ID        int64     `json:"id,omitempty"`
	ChatID    uuid.UUID `json:"chat_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Subjects and languages offered by the tutoring client. The source option
// list carried a duplicate language entry; the sets here are deduplicated.
var (
	Subjects  = map[string]bool{"physics": true, "ict": true, "bgs": true}
	Languages = map[string]bool{"english": true, "bangla": true, "mixed": true}
)

const (
	DefaultSubject  = "physics"
	DefaultLanguage = "english"
)

func ValidSubject(s string) bool  { return Subjects[s] }
func ValidLanguage(l string) bool { return Languages[l] }
