package flashcards

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d *Deck) (*Deck, error) {
	query :=
		`INSERT INTO flashcards (owner, title, storage_key, status, questions)
		 VALUES ($1, $2, $3, $4, '[]')
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query,
		d.Owner, d.Title, d.StorageKey, d.Status).
		Scan(&d.ID, &d.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, owner string) ([]Deck, error) {
	query :=
		`SELECT id, owner, title, storage_key, status, questions, created_at
		 FROM flashcards
		 WHERE owner = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Deck
	for rows.Next() {
		d, err := scanDeck(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id, owner string) (*Deck, error) {
	query :=
		`SELECT id, owner, title, storage_key, status, questions, created_at
		 FROM flashcards
		 WHERE id = $1 AND owner = $2
		 `

	d, err := scanDeck(r.db.QueryRowContext(ctx, query, id, owner).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func scanDeck(scan func(...any) error) (*Deck, error) {
	var d Deck
	var questions []byte
	if err := scan(&d.ID, &d.Owner, &d.Title, &d.StorageKey, &d.Status,
		&questions, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &d.Questions); err != nil {
			return nil, fmt.Errorf("decoding questions: %w", err)
		}
	}
	return &d, nil
}

func (r *PostgresRepository) SetResult(ctx context.Context, id, status string, questions []api.QuizQuestion) error {
	if questions == nil {
		questions = []api.QuizQuestion{}
	}
	encoded, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("encoding questions: %w", err)
	}

	query :=
		`UPDATE flashcards SET status = $2, questions = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, status, encoded)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, owner string) error {
	query := `DELETE FROM flashcards WHERE id = $1 AND owner = $2`

	res, err := r.db.ExecContext(ctx, query, id, owner)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
