package chat

import "context"

type Repository interface {
	// GetOrCreate returns the conversation for key, creating it with the
	// given participants when absent, and clears the caller's hidden flag.
	GetOrCreate(ctx context.Context, key string, participants []string, forUser string) (*Conversation, error)

	// Get returns one conversation with its participants.
	Get(ctx context.Context, id string) (*Conversation, error)

	// ListForUser returns the user's visible conversations, newest activity
	// first, with unread counts computed for that user.
	ListForUser(ctx context.Context, username string) ([]Summary, error)

	// Messages returns the ascending message history with read receipts.
	Messages(ctx context.Context, conversationID string) ([]Message, error)

	// AddMessage stores a message, records the sender's implicit read, bumps
	// the conversation's lastMessageAt, and unhides it for every participant.
	AddMessage(ctx context.Context, msg *Message) (*Message, error)

	// MarkRead records the user's read receipt on every message they did not
	// send.
	MarkRead(ctx context.Context, conversationID, username string) error

	// SetHidden flips the per-user soft-delete flag.
	SetHidden(ctx context.Context, conversationID, username string, hidden bool) error
}
