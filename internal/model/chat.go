package model

import "time"

// MessageType identifies the author of a chat message
type MessageType string

const (
	MessageUser   MessageType = "user"
	MessageBot    MessageType = "bot"
	MessageSystem MessageType = "system"
)

// MaxMessageLength is the longest accepted user message, in characters
const MaxMessageLength = 1000

// MaxSessionIDLength is the longest accepted client supplied session id
const MaxSessionIDLength = 100

// ChatSession represents a conversation owned by one user
type ChatSession struct {
	ID           int64         `json:"id" db:"id"`
	SessionID    string        `json:"session_id" db:"session_id"`
	UserID       string        `json:"-" db:"user_id"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
	IsActive     bool          `json:"is_active" db:"is_active"`
	Messages     []ChatMessage `json:"messages" db:"-"`
	MessageCount int           `json:"message_count" db:"message_count"`
}

// ChatMessage represents a single message in a session
type ChatMessage struct {
	ID          int64       `json:"id" db:"id"`
	SessionPK   int64       `json:"-" db:"session_pk"`
	MessageType MessageType `json:"message_type" db:"message_type"`
	Content     string      `json:"content" db:"content"`
	Metadata    JSONMap     `json:"metadata" db:"metadata"`
	Timestamp   time.Time   `json:"timestamp" db:"timestamp"`
}

// UserIntent records the classification of a user message
type UserIntent struct {
	ID         int64               `json:"id" db:"id"`
	SessionPK  int64               `json:"-" db:"session_pk"`
	IntentType Intent              `json:"intent_type" db:"intent_type"`
	Confidence float64             `json:"confidence" db:"confidence"`
	Parameters ExtractedParameters `json:"parameters" db:"parameters"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
}

// ChatInput represents the body of POST /chat/message
type ChatInput struct {
	Message   string `json:"message" binding:"required,max=1000"`
	SessionID string `json:"session_id" binding:"max=100"`
}

// ChatReply is the result of handling one chat turn
type ChatReply struct {
	SessionID   string      `json:"session_id"`
	UserMessage ChatMessage `json:"user_message"`
	BotResponse ChatMessage `json:"bot_response"`
	Intent      Intent      `json:"intent"`
	Confidence  float64     `json:"confidence"`
}

// SessionListResponse represents GET /chat/sessions
type SessionListResponse struct {
	Sessions []ChatSession `json:"sessions"`
}

// MessageResponse is a plain acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}
