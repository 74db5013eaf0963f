package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/studyhall/studyhall/internal/common"
	"github.com/studyhall/studyhall/internal/dbx"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, key string, participants []string, forUser string) (*Conversation, error) {
	conv := &Conversation{}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (conv_key) VALUES ($1)
			 ON CONFLICT (conv_key) DO NOTHING`, key); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		err := tx.QueryRowContext(ctx,
			`SELECT id, conv_key, created_at, last_message_at FROM conversations
			 WHERE conv_key = $1`, key).
			Scan(&conv.ID, &conv.Key, &conv.CreatedAt, &conv.LastMessageAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		for _, p := range participants {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO conversation_members (conversation_id, username)
				 VALUES ($1, $2)
				 ON CONFLICT (conversation_id, username) DO NOTHING`, conv.ID, p); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE conversation_members SET hidden = false
			 WHERE conversation_id = $1 AND username = $2`, conv.ID, forUser); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	conv.Participants = participants
	return conv, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Conversation, error) {
	conv := &Conversation{}
	var members string

	query :=
		`SELECT c.id, c.conv_key, c.created_at, c.last_message_at,
		        (SELECT string_agg(username, ',') FROM conversation_members
		          WHERE conversation_id = c.id)
		 FROM conversations c
		 WHERE c.id = $1
		 `

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&conv.ID, &conv.Key, &conv.CreatedAt, &conv.LastMessageAt, &members)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	conv.Participants = splitAgg(members)
	return conv, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, username string) ([]Summary, error) {
	query :=
		`SELECT c.id, c.conv_key, c.created_at, c.last_message_at,
		        (SELECT string_agg(username, ',') FROM conversation_members
		          WHERE conversation_id = c.id),
		        COALESCE((SELECT body FROM messages m
		          WHERE m.conversation_id = c.id
		          ORDER BY m.created_at DESC, m.id DESC LIMIT 1), ''),
		        (SELECT count(*) FROM messages m
		          WHERE m.conversation_id = c.id AND m.sender <> $1
		            AND NOT EXISTS (SELECT 1 FROM message_reads r
		                             WHERE r.message_id = m.id AND r.username = $1))
		 FROM conversations c
		 JOIN conversation_members cm
		   ON cm.conversation_id = c.id AND cm.username = $1 AND NOT cm.hidden
		 ORDER BY c.last_message_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var members string
		if err := rows.Scan(&s.ID, &s.Key, &s.CreatedAt, &s.LastMessageAt,
			&members, &s.LastPreview, &s.Unread); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		s.Participants = splitAgg(members)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	query :=
		`SELECT m.id, m.conversation_id, m.sender, m.body, m.created_at,
		        COALESCE((SELECT string_agg(username, ',') FROM message_reads
		          WHERE message_id = m.id), '')
		 FROM messages m
		 WHERE m.conversation_id = $1
		 ORDER BY m.created_at ASC, m.id ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var readBy string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Body,
			&m.CreatedAt, &readBy); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.ReadBy = splitAgg(readBy)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) AddMessage(ctx context.Context, msg *Message) (*Message, error) {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO messages (conversation_id, sender, body)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at`,
			msg.ConversationID, msg.Sender, msg.Body).
			Scan(&msg.ID, &msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		// sender's implicit read
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO message_reads (message_id, username) VALUES ($1, $2)`,
			msg.ID, msg.Sender); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET last_message_at = $2
			 WHERE id = $1`, msg.ConversationID, msg.CreatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		// a new message makes the thread visible to everyone again
		if _, err := tx.ExecContext(ctx,
			`UPDATE conversation_members SET hidden = false
			 WHERE conversation_id = $1`, msg.ConversationID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg.ReadBy = []string{msg.Sender}
	return msg, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, conversationID, username string) error {
	query :=
		`INSERT INTO message_reads (message_id, username)
		 SELECT m.id, $2 FROM messages m
		 WHERE m.conversation_id = $1 AND m.sender <> $2
		 ON CONFLICT (message_id, username) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, conversationID, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetHidden(ctx context.Context, conversationID, username string, hidden bool) error {
	query :=
		`UPDATE conversation_members SET hidden = $3
		 WHERE conversation_id = $1 AND username = $2
		 `

	res, err := r.db.ExecContext(ctx, query, conversationID, username, hidden)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func splitAgg(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
