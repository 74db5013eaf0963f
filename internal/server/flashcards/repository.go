package flashcards

import (
	"context"

	"github.com/studyhall/studyhall/internal/api"
)

type Repository interface {
	Create(ctx context.Context, d *Deck) (*Deck, error)
	ListForUser(ctx context.Context, owner string) ([]Deck, error)

	// Get returns the deck only when it belongs to owner.
	Get(ctx context.Context, id, owner string) (*Deck, error)

	// SetResult records the outcome of processing: the final status and, on
	// success, the generated questions.
	SetResult(ctx context.Context, id, status string, questions []api.QuizQuestion) error

	Delete(ctx context.Context, id, owner string) error
}
