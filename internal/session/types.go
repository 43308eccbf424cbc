// Package session persists conversation history in PostgreSQL. The store is
// append-only: the chat surface records each exchange, and nothing in the
// retrieval core depends on it.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Message roles. The schema enforces the same set.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is one chat thread owned by a user.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn within a conversation. SequenceNumber is assigned by
// the store and is strictly increasing within a conversation.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SequenceNumber int32     `json:"sequence_number"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
