// Package chat maintains the client's view of conversations and messages:
// one deduplicated, time-ordered log per conversation plus the conversation
// list with unread badges.
package chat

import (
	"sort"
	"sync"

	"github.com/studyhall/studyhall/internal/api"
)

// Statuses for sent-by-me messages.
const (
	StatusRead      = "Read"
	StatusDelivered = "Delivered"
)

// MergeConversations dedupes by conversation id with last-seen-wins
// semantics and orders the result by most recent activity.
func MergeConversations(existing, incoming []api.ConversationSummary) []api.ConversationSummary {
	byID := make(map[string]int)
	merged := make([]api.ConversationSummary, 0, len(existing)+len(incoming))

	for _, c := range existing {
		if i, ok := byID[c.ID]; ok {
			merged[i] = c
			continue
		}
		byID[c.ID] = len(merged)
		merged = append(merged, c)
	}
	for _, c := range incoming {
		if i, ok := byID[c.ID]; ok {
			merged[i] = c
			continue
		}
		byID[c.ID] = len(merged)
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].LastMessageAt.Equal(merged[j].LastMessageAt) {
			return merged[i].LastMessageAt.After(merged[j].LastMessageAt)
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

// MergeMessages unions two message sets by id and returns them ascending by
// createdAt with id as the tie-break. Incoming wins on id collisions.
// Re-merging the same snapshot is a no-op: no duplicates, no reordering.
func MergeMessages(existing, incoming []api.Message) []api.Message {
	byID := make(map[string]int)
	merged := make([]api.Message, 0, len(existing)+len(incoming))

	for _, m := range existing {
		if i, ok := byID[m.ID]; ok {
			merged[i] = m
			continue
		}
		byID[m.ID] = len(merged)
		merged = append(merged, m)
	}
	for _, m := range incoming {
		if i, ok := byID[m.ID]; ok {
			merged[i] = m
			continue
		}
		byID[m.ID] = len(merged)
		merged = append(merged, m)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.Before(merged[j].CreatedAt)
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

// DeliveryStatus classifies a sent-by-me message: "Read" when every other
// participant appears in its readBy set, else "Delivered". Always recomputed
// from the current participant list so participant changes are reflected.
func DeliveryStatus(msg api.Message, participants []api.Participant, me string) string {
	readBy := make(map[string]struct{}, len(msg.ReadBy))
	for _, u := range msg.ReadBy {
		readBy[u] = struct{}{}
	}
	for _, p := range participants {
		if p.Username == me {
			continue
		}
		if _, ok := readBy[p.Username]; !ok {
			return StatusDelivered
		}
	}
	return StatusRead
}

// Store caches the reconciled conversation list and the message log of the
// currently open conversation.
type Store struct {
	mu            sync.Mutex
	conversations []api.ConversationSummary
	selectedID    string
	messages      []api.Message
}

func NewStore() *Store {
	return &Store{}
}

// ApplyConversations reconciles a polled conversation snapshot. The server
// list fully describes live conversations, so ids absent from it are
// dropped; if the selected conversation disappeared, selection falls back to
// the first available one, else none.
func (s *Store) ApplyConversations(incoming []api.ConversationSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = MergeConversations(nil, incoming)

	if s.selectedID == "" {
		return
	}
	for _, c := range s.conversations {
		if c.ID == s.selectedID {
			return
		}
	}
	if len(s.conversations) > 0 {
		s.selectedID = s.conversations[0].ID
	} else {
		s.selectedID = ""
	}
	s.messages = nil
}

// Select opens a conversation and clears any previously cached log. It also
// zeroes the local unread badge immediately; the caller issues the mark-read
// call, and a failure there is deliberately not rolled back.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID != id {
		s.messages = nil
	}
	s.selectedID = id
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations[i].UnreadCount = 0
		}
	}
}

// Close deselects the open conversation.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
	s.messages = nil
}

// SelectedID returns the id of the open conversation, or "".
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// Selected returns the open conversation's summary.
func (s *Store) Selected() (api.ConversationSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.ID == s.selectedID {
			return c, true
		}
	}
	return api.ConversationSummary{}, false
}

// ApplyMessages merges a polled message snapshot for convID. Late results
// for a conversation that is no longer open are discarded.
func (s *Store) ApplyMessages(convID string, incoming []api.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if convID != s.selectedID {
		return
	}
	s.messages = MergeMessages(s.messages, incoming)
}

// ApplySent merges the message returned by a send call through the same
// id-dedupe rule, so a concurrent poll returning it cannot double it.
func (s *Store) ApplySent(msg api.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ConversationID != s.selectedID {
		return
	}
	s.messages = MergeMessages(s.messages, []api.Message{msg})
}

// Conversations returns the current list, most recent activity first.
func (s *Store) Conversations() []api.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.ConversationSummary, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Messages returns the open conversation's log, oldest first.
func (s *Store) Messages() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// TotalUnread sums the unread badges across conversations.
func (s *Store) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.conversations {
		n += c.UnreadCount
	}
	return n
}

// Reset drops all cached chat state. Called on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = nil
	s.selectedID = ""
	s.messages = nil
}
