// Package domain defines the chat data model.
package domain

import (
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	// RoleUser marks a message typed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a reply produced by the completion service.
	RoleAssistant Role = "assistant"
)

// DefaultTitle is the placeholder title assigned to a freshly created chat.
const DefaultTitle = "New Chat"

// titleMaxLen is the number of characters of the first user message kept
// when deriving a chat title.
const titleMaxLen = 30

// Message is a single turn in a conversation. Messages are immutable once
// appended; slice order defines the conversational sequence.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Chat is one independent conversation. The chat id is the key of the
// State.Chats map, not a field, matching the persisted blob shape.
type Chat struct {
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// State is the full serialized store state: every chat plus the current
// selection. CurrentID is empty when nothing is selected.
type State struct {
	Chats     map[string]*Chat `json:"chats"`
	CurrentID string           `json:"currentChat"`
}

// DeriveTitle builds a chat title from the first user message: the first
// 30 characters, with an ellipsis marker when the message was longer.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen]) + "..."
	}
	return content
}
