package chat

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
	"github.com/studyhall/studyhall/internal/logging"
	"github.com/studyhall/studyhall/internal/server/users"
)

// RoleSource resolves usernames to accounts, for participant roles and peer
// validation.
type RoleSource interface {
	Get(ctx context.Context, username string) (*users.User, error)
}

// Notifier delivers the "new direct message" notification to the peer.
// The notifications service honors the peer's preferences.
type Notifier interface {
	NotifyDirectMessage(ctx context.Context, to, from, preview string)
}

// Service implements the conversation flows.
type Service struct {
	repo     Repository
	accounts RoleSource
	notifier Notifier
	log      logging.Logger
}

func NewService(repo Repository, accounts RoleSource, notifier Notifier, log logging.Logger) *Service {
	return &Service{repo: repo, accounts: accounts, notifier: notifier, log: log}
}

// Open returns the caller's conversation with peer, creating it on first
// contact. Re-opening a soft-deleted thread unhides it for the caller only.
func (s *Service) Open(ctx context.Context, me, peer string) (api.ConversationSummary, error) {
	if me == peer {
		return api.ConversationSummary{}, fmt.Errorf("%w: cannot chat with yourself", common.ErrValidation)
	}
	if _, err := s.accounts.Get(ctx, peer); err != nil {
		return api.ConversationSummary{}, err
	}

	conv, err := s.repo.GetOrCreate(ctx, ConversationKey(me, peer), []string{me, peer}, me)
	if err != nil {
		return api.ConversationSummary{}, err
	}

	summary := Summary{Conversation: *conv}
	return s.toSummary(ctx, summary), nil
}

// List returns the caller's visible conversations, newest activity first.
func (s *Service) List(ctx context.Context, me string) ([]api.ConversationSummary, error) {
	rows, err := s.repo.ListForUser(ctx, me)
	if err != nil {
		return nil, err
	}
	out := make([]api.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toSummary(ctx, row))
	}
	return out, nil
}

// Messages returns the ascending history of one of the caller's
// conversations. Non-members get ErrNotFound, not ErrForbidden, so
// conversation ids leak nothing.
func (s *Service) Messages(ctx context.Context, me, conversationID string) ([]api.Message, error) {
	conv, err := s.memberConversation(ctx, me, conversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.repo.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	out := make([]api.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, s.toMessage(ctx, m, conv))
	}
	return out, nil
}

// Send stores a message and notifies the peer.
func (s *Service) Send(ctx context.Context, me, conversationID, body string) (api.Message, error) {
	conv, err := s.memberConversation(ctx, me, conversationID)
	if err != nil {
		return api.Message{}, err
	}

	msg, err := s.repo.AddMessage(ctx, &Message{
		ConversationID: conversationID,
		Sender:         me,
		Body:           body,
	})
	if err != nil {
		return api.Message{}, err
	}

	if s.notifier != nil {
		for _, p := range conv.Participants {
			if p != me {
				s.notifier.NotifyDirectMessage(ctx, p, me, preview(body))
			}
		}
	}

	return s.toMessage(ctx, *msg, conv), nil
}

// MarkRead records the caller's read receipt on the whole conversation.
func (s *Service) MarkRead(ctx context.Context, me, conversationID string) error {
	if _, err := s.memberConversation(ctx, me, conversationID); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, conversationID, me)
}

// Delete soft-deletes the conversation for the caller only.
func (s *Service) Delete(ctx context.Context, me, conversationID string) error {
	if _, err := s.memberConversation(ctx, me, conversationID); err != nil {
		return err
	}
	return s.repo.SetHidden(ctx, conversationID, me, true)
}

func (s *Service) memberConversation(ctx context.Context, me, conversationID string) (*Conversation, error) {
	conv, err := s.repo.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for _, p := range conv.Participants {
		if p == me {
			return conv, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *Service) toSummary(ctx context.Context, row Summary) api.ConversationSummary {
	return api.ConversationSummary{
		ID:                 row.ID,
		Participants:       s.participants(ctx, row.Participants),
		LastMessageAt:      row.LastMessageAt,
		LastMessagePreview: preview(row.LastPreview),
		UnreadCount:        row.Unread,
	}
}

func (s *Service) toMessage(ctx context.Context, m Message, conv *Conversation) api.Message {
	sender := api.Participant{Username: m.Sender}
	for _, p := range s.participants(ctx, conv.Participants) {
		if p.Username == m.Sender {
			sender = p
		}
	}
	return api.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         sender,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
		ReadBy:         m.ReadBy,
	}
}

func (s *Service) participants(ctx context.Context, names []string) []api.Participant {
	out := make([]api.Participant, 0, len(names))
	for _, name := range names {
		p := api.Participant{Username: name, Role: api.RoleMember}
		if u, err := s.accounts.Get(ctx, name); err == nil {
			p.Role = u.Role
		}
		out = append(out, p)
	}
	return out
}

const previewLen = 80

func preview(body string) string {
	if len(body) <= previewLen {
		return body
	}
	// Back off to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "…"
}
