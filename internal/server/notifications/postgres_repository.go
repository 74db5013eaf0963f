package notifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/studyhall/studyhall/internal/common"
	"github.com/studyhall/studyhall/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, n *Notification) (*Notification, error) {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	query :=
		`INSERT INTO notifications (username, kind, payload)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, n.Username, n.Kind, payload).
		Scan(&n.ID, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, username string) ([]Notification, error) {
	query :=
		`SELECT id, username, kind, payload, created_at, read_at
		 FROM notifications
		 WHERE username = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var payload []byte
		if err := rows.Scan(&n.ID, &n.Username, &n.Kind, &payload, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Payload); err != nil {
				return nil, fmt.Errorf("decoding payload: %w", err)
			}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id, username string) error {
	query :=
		`UPDATE notifications SET read_at = now()
		 WHERE id = $1 AND username = $2 AND read_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, id, username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// either unknown, someone else's, or already read; the caller cannot
		// tell the difference and should not
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, username string) error {
	query :=
		`UPDATE notifications SET read_at = now()
		 WHERE username = $1 AND read_at IS NULL
		 `

	if _, err := r.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPrefs(ctx context.Context, username string) (*Prefs, error) {
	query :=
		`SELECT username, direct_messages, community, system
		 FROM notification_prefs
		 WHERE username = $1
		 `

	p := &Prefs{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&p.Username, &p.DirectMessages, &p.Community, &p.System)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaultPrefs(username), nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) SetPrefs(ctx context.Context, prefs *Prefs) error {
	query :=
		`INSERT INTO notification_prefs (username, direct_messages, community, system)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username) DO UPDATE
		   SET direct_messages = EXCLUDED.direct_messages,
		       community = EXCLUDED.community,
		       system = EXCLUDED.system
		 `

	if _, err := r.db.ExecContext(ctx, query,
		prefs.Username, prefs.DirectMessages, prefs.Community, prefs.System); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
