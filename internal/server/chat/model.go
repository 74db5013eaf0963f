// Package chat owns direct conversations: open-or-create keyed by the
// participant pair, messages with per-user read receipts, and per-user soft
// deletes.
package chat

import (
	"sort"
	"strings"
	"time"
)

// Conversation is one direct-message thread.
type Conversation struct {
	ID            string
	Key           string
	Participants  []string
	CreatedAt     time.Time
	LastMessageAt time.Time
}

// Summary is a conversation row tailored for one user's list view.
type Summary struct {
	Conversation
	LastPreview string
	Unread      int
}

// Message is one chat message row.
type Message struct {
	ID             string
	ConversationID string
	Sender         string
	Body           string
	CreatedAt      time.Time
	ReadBy         []string
}

// ConversationKey builds the canonical pair key: sorted usernames joined
// with "|". The same two users always map onto the same conversation.
func ConversationKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}
