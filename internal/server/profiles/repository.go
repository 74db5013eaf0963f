package profiles

import "context"

type Repository interface {
	// Get returns the stored profile, or common.ErrNotFound when the user
	// has never saved one.
	Get(ctx context.Context, username string) (*Profile, error)
	// GetByEmail matches case-insensitively on the stored email.
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	// Save upserts the whole row keyed by username.
	Save(ctx context.Context, p *Profile) (*Profile, error)
}
