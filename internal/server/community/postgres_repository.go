package community

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
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreatePost(ctx context.Context, p *Post) (*Post, error) {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}

	query :=
		`INSERT INTO posts (author, title, body, tags, attachment_key)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query,
		p.Author, p.Title, p.Body, tags, p.AttachmentKey).
		Scan(&p.ID, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

const postViewColumns = `
	p.id, p.author, p.title, p.body, p.tags, p.attachment_key, p.created_at,
	(SELECT count(*) FROM post_likes l WHERE l.post_id = p.id),
	EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.username = $1),
	(SELECT count(*) FROM comments c WHERE c.post_id = p.id)`

func (r *PostgresRepository) ListPosts(ctx context.Context, viewer string) ([]PostView, error) {
	query := `SELECT` + postViewColumns + `
		 FROM posts p
		 ORDER BY p.created_at DESC, p.id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, viewer)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []PostView
	for rows.Next() {
		v, err := scanPostView(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetPost(ctx context.Context, id, viewer string) (*PostView, error) {
	query := `SELECT` + postViewColumns + `
		 FROM posts p
		 WHERE p.id = $2
		 `

	v, err := scanPostView(r.db.QueryRowContext(ctx, query, viewer, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func scanPostView(scan func(...any) error) (*PostView, error) {
	var v PostView
	var tags []byte
	if err := scan(&v.ID, &v.Author, &v.Title, &v.Body, &tags, &v.AttachmentKey,
		&v.CreatedAt, &v.Likes, &v.LikedByMe, &v.CommentCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &v.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags: %w", err)
		}
	}
	return &v, nil
}

func (r *PostgresRepository) ToggleLike(ctx context.Context, postID, username string) (bool, error) {
	liked := false
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND username = $2`,
			postID, username)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			return nil // unliked
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_likes (post_id, username) VALUES ($1, $2)`,
			postID, username); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		liked = true
		return nil
	})
	return liked, err
}

func (r *PostgresRepository) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	query :=
		`SELECT id, post_id, author, body, created_at
		 FROM comments
		 WHERE post_id = $1
		 ORDER BY created_at ASC, id ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) AddComment(ctx context.Context, c *Comment) (*Comment, error) {
	query :=
		`INSERT INTO comments (post_id, author, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, c.PostID, c.Author, c.Body).
		Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) CreateReport(ctx context.Context, rep *Report) (*Report, error) {
	query :=
		`INSERT INTO reports (post_id, reporter, reason)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, rep.PostID, rep.Reporter, rep.Reason).
		Scan(&rep.ID, &rep.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rep, nil
}

func (r *PostgresRepository) ListOpenReports(ctx context.Context) ([]Report, error) {
	query :=
		`SELECT r.id, r.post_id, p.title, r.reporter, r.reason, r.created_at,
		        r.resolved_at, COALESCE(r.resolved_by, '')
		 FROM reports r
		 JOIN posts p ON p.id = r.post_id
		 WHERE r.resolved_at IS NULL
		 ORDER BY r.created_at DESC, r.id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.PostID, &rep.PostTitle, &rep.Reporter,
			&rep.Reason, &rep.CreatedAt, &rep.ResolvedAt, &rep.ResolvedBy); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ResolveReport(ctx context.Context, id, resolver string) error {
	query :=
		`UPDATE reports SET resolved_at = now(), resolved_by = $2
		 WHERE id = $1 AND resolved_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, id, resolver)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
