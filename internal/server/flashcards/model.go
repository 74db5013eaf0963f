// Package flashcards owns uploaded decks: PDF blob presigning, text
// extraction through the parser collaborator, question generation, and the
// explanation proxy.
package flashcards

import (
	"time"

	"github.com/studyhall/studyhall/internal/api"
)

// Deck is one uploaded flashcard deck. Questions are generated once during
// processing and stored as JSON alongside the row.
type Deck struct {
	ID         string
	Owner      string
	Title      string
	StorageKey string
	Status     string
	Questions  []api.QuizQuestion
	CreatedAt  time.Time
}

// Wire converts to the list shape, without questions.
func (d *Deck) Wire() api.Flashcard {
	return api.Flashcard{
		ID:            d.ID,
		Title:         d.Title,
		Status:        d.Status,
		QuestionCount: len(d.Questions),
		CreatedAt:     d.CreatedAt,
	}
}

// WireDetail converts to the detail shape, questions included.
func (d *Deck) WireDetail() api.FlashcardDetail {
	return api.FlashcardDetail{
		Flashcard: d.Wire(),
		Questions: d.Questions,
	}
}
