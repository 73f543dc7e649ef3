package entities

import "time"

// ConversationTurn is one user/assistant exchange. Immutable once written;
// history ordering is by CreatedAt.
type ConversationTurn struct {
	ID          int       `json:"id"`
	TenantID    int       `json:"tenant_id"`
	PhoneNumber string    `json:"phone_number"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryEntry is one chat-log line handed to the generator, oldest first.
type HistoryEntry struct {
	Role    string // "user" or "assistant"
	Content string
}
