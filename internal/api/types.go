// Package api defines the wire shapes exchanged between the StudyHall
// server and its clients. Both sides marshal these types verbatim, so any
// change here is a protocol change.
package api

import "time"

// Role is a user's role bucket.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// EventKind classifies entries of the presence event feed.
type EventKind string

const (
	EventLogin         EventKind = "login"
	EventLogout        EventKind = "logout"
	EventSignup        EventKind = "signup"
	EventCommunityPost EventKind = "community_post"
)

// PresenceEntry is one row of a roster snapshot. LastSeenAt is nil for
// accounts that have never logged in.
type PresenceEntry struct {
	Username   string     `json:"username"`
	Role       Role       `json:"role"`
	Online     bool       `json:"online"`
	LastSeenAt *time.Time `json:"lastSeenAt"`
}

// PresenceOverview is the full roster, split by role bucket.
type PresenceOverview struct {
	Admins  []PresenceEntry `json:"admins"`
	Members []PresenceEntry `json:"members"`
}

// PresenceEvent is one entry of the admin activity feed.
type PresenceEvent struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Role       Role      `json:"role"`
	Kind       EventKind `json:"kind"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Participant identifies one side of a conversation.
type Participant struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// ConversationSummary is one row of the conversation list. UnreadCount is
// computed server-side for the requesting user.
type ConversationSummary struct {
	ID                 string        `json:"id"`
	Participants       []Participant `json:"participants"`
	LastMessageAt      time.Time     `json:"lastMessageAt"`
	LastMessagePreview string        `json:"lastMessagePreview"`
	UnreadCount        int           `json:"unreadCount"`
}

// Message is one chat message. ReadBy lists every username that has marked
// the message read, including the sender's own implicit read.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	Sender         Participant `json:"sender"`
	Body           string      `json:"body"`
	CreatedAt      time.Time   `json:"createdAt"`
	ReadBy         []string    `json:"readBy"`
}

// NotificationItem is a server-owned notification row. Payload is an opaque
// bag of strings keyed for the client's display templates.
type NotificationItem struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Payload   map[string]string `json:"payload"`
	CreatedAt time.Time         `json:"createdAt"`
	ReadAt    *time.Time        `json:"readAt"`
}

// NotificationPrefs controls which notification kinds get delivered.
type NotificationPrefs struct {
	DirectMessages bool `json:"directMessages"`
	Community      bool `json:"community"`
	System         bool `json:"system"`
}

// Flashcard deck statuses.
const (
	DeckProcessing = "processing"
	DeckReady      = "ready"
	DeckFailed     = "failed"
)

// Flashcard is one uploaded deck, without its questions.
type Flashcard struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// QuizQuestion is one generated question. Choices maps answer letters (A-D)
// to choice text. Answer carries the correct letter so grading stays local
// to the client's quiz machine.
type QuizQuestion struct {
	Number  int               `json:"number"`
	Prompt  string            `json:"prompt"`
	Choices map[string]string `json:"choices"`
	Answer  string            `json:"answer"`
}

// FlashcardDetail is a deck together with its questions.
type FlashcardDetail struct {
	Flashcard
	Questions []QuizQuestion `json:"questions"`
}

// Post is one community post as rendered for the requesting user.
type Post struct {
	ID            string    `json:"id"`
	Author        string    `json:"author"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Tags          []string  `json:"tags"`
	AttachmentKey string    `json:"attachmentKey,omitempty"`
	Likes         int       `json:"likes"`
	LikedByMe     bool      `json:"likedByMe"`
	CommentCount  int       `json:"commentCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Comment is one comment on a community post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Report is one moderation report on a community post.
type Report struct {
	ID         string     `json:"id"`
	PostID     string     `json:"postId"`
	PostTitle  string     `json:"postTitle"`
	Reporter   string     `json:"reporter"`
	Reason     string     `json:"reason"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt"`
	ResolvedBy string     `json:"resolvedBy,omitempty"`
}

// UserAccount is the admin view of a registered account.
type UserAccount struct {
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

// Account states.
const (
	UserPending = "pending"
	UserActive  = "active"
)

// UserProfile is the owner's view of their extended account profile.
// Verification timestamps are nil until the matching contact detail has been
// confirmed with a code.
type UserProfile struct {
	Username        string     `json:"username"`
	Role            Role       `json:"role"`
	Email           string     `json:"email,omitempty"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	PhoneE164       string     `json:"phoneE164,omitempty"`
	PhoneVerifiedAt *time.Time `json:"phoneVerifiedAt"`
	FirstName       string     `json:"firstName,omitempty"`
	LastName        string     `json:"lastName,omitempty"`
	DisplayName     string     `json:"displayName,omitempty"`
	AvatarURL       string     `json:"avatarUrl,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	Timezone        string     `json:"timezone,omitempty"`
	Locale          string     `json:"locale,omitempty"`
	MarketingOptIn  bool       `json:"marketingOptIn"`
	UpdatedAt       *time.Time `json:"updatedAt"`
}
