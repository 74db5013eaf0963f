package flashcards

import (
	"context"
	"time"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/logging"
)

// BlobStore presigns uploads for deck PDFs.
type BlobStore interface {
	PresignPut(ctx context.Context) (key, url string, err error)
}

// Service implements the deck flows: upload slots, processing, and the
// explanation proxy.
type Service struct {
	repo      Repository
	blobs     BlobStore
	parser    TextExtractor
	explainer Explainer
	log       logging.Logger

	// spawn runs deck processing; tests replace it to run inline.
	spawn func(func())
}

func NewService(repo Repository, blobs BlobStore, parser TextExtractor, explainer Explainer, log logging.Logger) *Service {
	return &Service{
		repo:      repo,
		blobs:     blobs,
		parser:    parser,
		explainer: explainer,
		log:       log,
		spawn:     func(fn func()) { go fn() },
	}
}

// List returns the caller's decks, newest first, without questions.
func (s *Service) List(ctx context.Context, owner string) ([]api.Flashcard, error) {
	rows, err := s.repo.ListForUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]api.Flashcard, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Wire())
	}
	return out, nil
}

// CreateUploadSlot mints a storage key and a presigned PUT URL. The client
// uploads the PDF there before registering the deck.
func (s *Service) CreateUploadSlot(ctx context.Context) (api.UploadSlot, error) {
	key, url, err := s.blobs.PresignPut(ctx)
	if err != nil {
		return api.UploadSlot{}, err
	}
	return api.UploadSlot{Key: key, URL: url}, nil
}

// Create registers an uploaded PDF as a deck and kicks off processing. The
// deck comes back in the processing state; the caller polls until it turns
// ready or failed.
func (s *Service) Create(ctx context.Context, owner string, req api.CreateFlashcardRequest) (api.Flashcard, error) {
	deck, err := s.repo.Create(ctx, &Deck{
		Owner:      owner,
		Title:      req.Title,
		StorageKey: req.StorageKey,
		Status:     api.DeckProcessing,
	})
	if err != nil {
		return api.Flashcard{}, err
	}

	// The wire view is captured before processing starts: the background
	// worker mutates the stored deck, and the caller must see "processing".
	out := deck.Wire()

	id, key := deck.ID, deck.StorageKey
	s.spawn(func() { s.process(id, key) })

	return out, nil
}

// process runs detached from the triggering request.
func (s *Service) process(deckID, storageKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), extractTimeout+time.Minute)
	defer cancel()

	text, err := s.parser.Extract(ctx, storageKey)
	if err != nil {
		s.log.Warn(ctx, "deck text extraction failed", "deck", deckID, "error", err)
		s.finish(ctx, deckID, api.DeckFailed, nil)
		return
	}

	questions := GenerateQuestions(text)
	if len(questions) == 0 {
		s.log.Warn(ctx, "no questions generated from deck", "deck", deckID)
		s.finish(ctx, deckID, api.DeckFailed, nil)
		return
	}

	s.finish(ctx, deckID, api.DeckReady, questions)
	s.log.Info(ctx, "deck processed", "deck", deckID, "questions", len(questions))
}

func (s *Service) finish(ctx context.Context, deckID, status string, questions []api.QuizQuestion) {
	if err := s.repo.SetResult(ctx, deckID, status, questions); err != nil {
		s.log.Error(ctx, "recording deck result failed", "deck", deckID, "status", status, "error", err)
	}
}

// Get returns one of the caller's decks, questions included.
func (s *Service) Get(ctx context.Context, owner, id string) (api.FlashcardDetail, error) {
	deck, err := s.repo.Get(ctx, id, owner)
	if err != nil {
		return api.FlashcardDetail{}, err
	}
	return deck.WireDetail(), nil
}

// Delete removes one of the caller's decks. The blob stays in storage; the
// bucket carries a lifecycle rule instead.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	return s.repo.Delete(ctx, id, owner)
}

// Explain proxies one answered question to the explanation collaborator.
func (s *Service) Explain(ctx context.Context, req api.ExplainRequest) (api.ExplainResponse, error) {
	return s.explainer.Explain(ctx, req)
}
