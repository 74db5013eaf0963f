package flashcards

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery("INSERT INTO flashcards").
		WithArgs("alice", "GE reviewer", "decks/1.pdf", api.DeckProcessing).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("d1", created))

	deck, err := NewPostgresRepository(db).Create(context.Background(), &Deck{
		Owner: "alice", Title: "GE reviewer", StorageKey: "decks/1.pdf", Status: api.DeckProcessing,
	})
	require.NoError(t, err)
	assert.Equal(t, "d1", deck.ID)
	assert.Equal(t, created, deck.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetDecodesQuestions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	questions := `[{"number":1,"prompt":"p","choices":{"A":"x","B":"y","C":"z","D":"w"},"answer":"A"}]`
	rows := sqlmock.NewRows([]string{"id", "owner", "title", "storage_key", "status", "questions", "created_at"}).
		AddRow("d1", "alice", "t", "k", api.DeckReady, []byte(questions), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM flashcards").
		WithArgs("d1", "alice").
		WillReturnRows(rows)

	deck, err := NewPostgresRepository(db).Get(context.Background(), "d1", "alice")
	require.NoError(t, err)
	require.Len(t, deck.Questions, 1)
	assert.Equal(t, "A", deck.Questions[0].Answer)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM flashcards").
		WithArgs("missing", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "title", "storage_key", "status", "questions", "created_at"}))

	_, err = NewPostgresRepository(db).Get(context.Background(), "missing", "alice")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgresRepository_SetResultNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE flashcards SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresRepository(db).SetResult(context.Background(), "missing", api.DeckFailed, nil)
	require.ErrorIs(t, err, common.ErrNotFound)
}
