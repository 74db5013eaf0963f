package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/studyhall/internal/api"
)

func at(min int) time.Time {
	return time.Date(2025, 6, 1, 12, min, 0, 0, time.UTC)
}

func conv(id string, min, unread int) api.ConversationSummary {
	return api.ConversationSummary{
		ID:            id,
		LastMessageAt: at(min),
		UnreadCount:   unread,
		Participants: []api.Participant{
			{Username: "me", Role: api.RoleMember},
			{Username: "peer-" + id, Role: api.RoleMember},
		},
	}
}

func msg(id string, min int, sender string, readBy ...string) api.Message {
	return api.Message{
		ID:             id,
		ConversationID: "c1",
		Sender:         api.Participant{Username: sender, Role: api.RoleMember},
		Body:           "m" + id,
		CreatedAt:      at(min),
		ReadBy:         readBy,
	}
}

func TestMergeConversations_DedupeLastWins(t *testing.T) {
	existing := []api.ConversationSummary{conv("a", 1, 2)}
	incoming := []api.ConversationSummary{conv("a", 5, 0), conv("b", 3, 1)}

	got := MergeConversations(existing, incoming)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, at(5), got[0].LastMessageAt)
	assert.Equal(t, 0, got[0].UnreadCount)
	assert.Equal(t, "b", got[1].ID)
}

func TestMergeMessages_IdempotentAndOrdered(t *testing.T) {
	snapshot := []api.Message{msg("2", 2, "peer"), msg("1", 1, "me"), msg("3", 3, "peer")}

	once := MergeMessages(nil, snapshot)
	twice := MergeMessages(once, snapshot)

	assert.Equal(t, once, twice, "re-merging the same snapshot must be a no-op")
	require.Len(t, twice, 3)
	for i := 1; i < len(twice); i++ {
		assert.False(t, twice[i].CreatedAt.Before(twice[i-1].CreatedAt))
	}
}

func TestMergeMessages_OverlappingSnapshots(t *testing.T) {
	first := []api.Message{msg("1", 1, "me"), msg("2", 2, "peer")}
	second := []api.Message{msg("2", 2, "peer"), msg("3", 3, "peer")}

	got := MergeMessages(MergeMessages(nil, first), second)
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "3", got[2].ID)
}

func TestMergeMessages_SameTimestampTieBreaksByID(t *testing.T) {
	got := MergeMessages(nil, []api.Message{msg("b", 1, "me"), msg("a", 1, "peer")})
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestDeliveryStatus(t *testing.T) {
	participants := []api.Participant{
		{Username: "me"}, {Username: "peer"},
	}

	sent := msg("1", 1, "me", "me")
	assert.Equal(t, StatusDelivered, DeliveryStatus(sent, participants, "me"))

	read := msg("1", 1, "me", "me", "peer")
	assert.Equal(t, StatusRead, DeliveryStatus(read, participants, "me"))

	// A participant added later and absent from readBy flips the status back.
	more := append(participants, api.Participant{Username: "third"})
	assert.Equal(t, StatusDelivered, DeliveryStatus(read, more, "me"))
}

func TestStore_SelectionFallbackWhenConversationDeleted(t *testing.T) {
	s := NewStore()
	s.ApplyConversations([]api.ConversationSummary{conv("a", 5, 0), conv("b", 3, 0)})
	s.Select("b")

	// "b" disappears from the next fetch: selection falls back to the first.
	s.ApplyConversations([]api.ConversationSummary{conv("a", 6, 0)})
	assert.Equal(t, "a", s.SelectedID())

	// Everything disappears: selection cleared.
	s.ApplyConversations(nil)
	assert.Equal(t, "", s.SelectedID())
}

func TestStore_SelectZeroesUnreadLocally(t *testing.T) {
	s := NewStore()
	s.ApplyConversations([]api.ConversationSummary{conv("a", 5, 4)})
	assert.Equal(t, 4, s.TotalUnread())

	s.Select("a")
	assert.Equal(t, 0, s.TotalUnread())
}

func TestStore_ApplyMessagesIgnoresClosedConversation(t *testing.T) {
	s := NewStore()
	s.ApplyConversations([]api.ConversationSummary{conv("c1", 5, 0)})
	s.Select("c1")
	s.ApplyMessages("c1", []api.Message{msg("1", 1, "peer")})
	require.Len(t, s.Messages(), 1)

	s.Close()
	// Late poll result for the closed panel is discarded.
	s.ApplyMessages("c1", []api.Message{msg("2", 2, "peer")})
	assert.Empty(t, s.Messages())
}

func TestStore_ApplySentDedupesAgainstPoll(t *testing.T) {
	s := NewStore()
	s.ApplyConversations([]api.ConversationSummary{conv("c1", 5, 0)})
	s.Select("c1")

	sent := msg("9", 9, "me")
	s.ApplySent(sent)
	// Concurrent poll returns the same message.
	s.ApplyMessages("c1", []api.Message{sent})

	assert.Len(t, s.Messages(), 1)
}

func TestStore_SwitchingConversationClearsLog(t *testing.T) {
	s := NewStore()
	s.ApplyConversations([]api.ConversationSummary{conv("c1", 5, 0), conv("c2", 4, 0)})
	s.Select("c1")
	s.ApplyMessages("c1", []api.Message{msg("1", 1, "peer")})

	s.Select("c2")
	assert.Empty(t, s.Messages())
}
