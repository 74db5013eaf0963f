package profiles

import (
	"context"
	"database/sql"
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

const profileColumns = `username, email, email_verified_at, phone_e164, phone_verified_at,
	 first_name, last_name, display_name, avatar_url, bio, timezone, locale,
	 marketing_opt_in, code_hash, code_kind, code_expires_at, code_requested_at, updated_at`

func (r *PostgresRepository) Get(ctx context.Context, username string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE username = $1`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(email) = LOWER($1)`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) Save(ctx context.Context, p *Profile) (*Profile, error) {
	query :=
		`INSERT INTO profiles (username, email, email_verified_at, phone_e164, phone_verified_at,
		                       first_name, last_name, display_name, avatar_url, bio, timezone, locale,
		                       marketing_opt_in, code_hash, code_kind, code_expires_at, code_requested_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now())
		 ON CONFLICT (username) DO UPDATE
		   SET email = EXCLUDED.email,
		       email_verified_at = EXCLUDED.email_verified_at,
		       phone_e164 = EXCLUDED.phone_e164,
		       phone_verified_at = EXCLUDED.phone_verified_at,
		       first_name = EXCLUDED.first_name,
		       last_name = EXCLUDED.last_name,
		       display_name = EXCLUDED.display_name,
		       avatar_url = EXCLUDED.avatar_url,
		       bio = EXCLUDED.bio,
		       timezone = EXCLUDED.timezone,
		       locale = EXCLUDED.locale,
		       marketing_opt_in = EXCLUDED.marketing_opt_in,
		       code_hash = EXCLUDED.code_hash,
		       code_kind = EXCLUDED.code_kind,
		       code_expires_at = EXCLUDED.code_expires_at,
		       code_requested_at = EXCLUDED.code_requested_at,
		       updated_at = now()
		 RETURNING updated_at
		 `

	if err := r.db.QueryRowContext(ctx, query,
		p.Username, p.Email, p.EmailVerifiedAt, p.PhoneE164, p.PhoneVerifiedAt,
		p.FirstName, p.LastName, p.DisplayName, p.AvatarURL, p.Bio, p.Timezone, p.Locale,
		p.MarketingOptIn, p.CodeHash, p.CodeKind, p.CodeExpiresAt, p.CodeRequestedAt).
		Scan(&p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) scanProfile(row *sql.Row) (*Profile, error) {
	p := &Profile{}
	err := row.Scan(&p.Username, &p.Email, &p.EmailVerifiedAt, &p.PhoneE164, &p.PhoneVerifiedAt,
		&p.FirstName, &p.LastName, &p.DisplayName, &p.AvatarURL, &p.Bio, &p.Timezone, &p.Locale,
		&p.MarketingOptIn, &p.CodeHash, &p.CodeKind, &p.CodeExpiresAt, &p.CodeRequestedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
