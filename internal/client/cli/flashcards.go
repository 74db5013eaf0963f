package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/client/quiz"
	"github.com/studyhall/studyhall/internal/netx"
)

// Cards fetches and prints the caller's decks.
func (a *App) Cards(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	cards, err := a.core.Rest.Flashcards(ctx)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Println("No decks. Use 'upload <path> <title>' to add one.")
		a.lastCards = nil
		return nil
	}
	for i, c := range cards {
		fmt.Printf("%2d %-30s %-10s %d questions\n", i+1, c.Title, c.Status, c.QuestionCount)
	}
	a.lastCards = cards
	return nil
}

// Upload sends a PDF through the presigned blob slot and registers the deck;
// question generation runs server-side.
func (a *App) Upload(ctx context.Context, path, title string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	slot, err := a.core.Rest.CreateUploadSlot(ctx)
	if err != nil {
		return err
	}
	if err := netx.UploadToPresignedURL(ctx, slot.URL, data); err != nil {
		return err
	}
	card, err := a.core.Rest.CreateFlashcard(ctx, api.CreateFlashcardRequest{Title: title, StorageKey: slot.Key})
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %q (status %s); run 'cards' to watch it become ready.\n", card.Title, card.Status)
	return nil
}

// Quiz starts (or resumes) a session over one deck from the last cards
// printout.
func (a *App) Quiz(ctx context.Context, ref string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	i, err := resolveIndex(ref, len(a.lastCards))
	if err != nil {
		return err
	}

	m, restored, err := a.core.StartQuiz(ctx, a.lastCards[i].ID)
	if err != nil {
		return err
	}
	m.SetOnWarning(func() {
		printlnFn("WARNING: offline for 4 minutes, the quiz auto-submits after 5.")
	})

	if restored {
		fmt.Printf("Resuming interrupted session at question %d.\n", m.Index()+1)
		return a.printQuestion(m)
	}

	answer, err := GetSimpleText(a.in, "Mode: hard (10s), medium (20s), easy <seconds>, practice", os.Stdout)
	if err != nil {
		return err
	}
	fields := strings.Fields(answer)
	if len(fields) == 0 {
		a.core.EndQuiz()
		return fmt.Errorf("no mode chosen")
	}

	mode := quiz.Mode(fields[0])
	easySeconds := 0
	if mode == quiz.ModeEasy {
		if len(fields) < 2 {
			a.core.EndQuiz()
			return fmt.Errorf("easy mode needs a per-question budget, e.g. 'easy 45'")
		}
		easySeconds, err = strconv.Atoi(fields[1])
		if err != nil {
			a.core.EndQuiz()
			return fmt.Errorf("bad seconds value %q", fields[1])
		}
	}
	if err := a.core.BeginQuiz(ctx, mode, easySeconds); err != nil {
		a.core.EndQuiz()
		return err
	}
	return a.printQuestion(m)
}

func (a *App) printQuestion(m *quiz.Machine) error {
	q, ok := m.CurrentQuestion()
	if !ok {
		return a.finishQuiz(m)
	}
	fmt.Printf("Question %d: %s\n", m.Index()+1, q.Prompt)

	letters := make([]string, 0, len(q.Choices))
	for l := range q.Choices {
		letters = append(letters, l)
	}
	sort.Strings(letters)
	for _, l := range letters {
		fmt.Printf("  %s) %s\n", l, q.Choices[l])
	}
	if m.Mode() != quiz.ModePractice {
		fmt.Printf("  %ds remaining\n", m.TimeRemaining())
	}
	return nil
}

// finishQuiz prints the outcome once the machine reaches a terminal state.
func (a *App) finishQuiz(m *quiz.Machine) error {
	switch m.State() {
	case quiz.StateFinished:
		correct, total, percent := m.Score()
		fmt.Printf("Finished: %d/%d correct (%.0f%%)\n", correct, total, percent)
		if m.CheatingFlagged() {
			fmt.Println("Note: this session was flagged for an integrity violation.")
		}
	case quiz.StateAborted:
		fmt.Println("Session aborted.")
	}
	a.core.EndQuiz()
	return nil
}

func (a *App) activeQuiz() (*quiz.Machine, error) {
	m := a.core.Quiz()
	if m == nil {
		return nil, fmt.Errorf("no active quiz (use 'quiz <n>')")
	}
	return m, nil
}

// Answer records a choice for the current question.
func (a *App) Answer(ctx context.Context, letter string) error {
	m, err := a.activeQuiz()
	if err != nil {
		return err
	}
	if err := m.SelectAnswer(ctx, strings.ToUpper(letter)); err != nil {
		return err
	}
	fmt.Println("Recorded.")
	return nil
}

// Skip moves on without an answer.
func (a *App) Skip(ctx context.Context) error {
	m, err := a.activeQuiz()
	if err != nil {
		return err
	}
	if err := m.Skip(ctx); err != nil {
		return err
	}
	return a.printQuestion(m)
}

// Submit grades the session early.
func (a *App) Submit(ctx context.Context) error {
	m, err := a.activeQuiz()
	if err != nil {
		return err
	}
	if err := m.Submit(ctx); err != nil {
		return err
	}
	return a.finishQuiz(m)
}

// Abandon discards the session without a score.
func (a *App) Abandon(ctx context.Context) error {
	m, err := a.activeQuiz()
	if err != nil {
		return err
	}
	if err := m.Abandon(ctx); err != nil {
		return err
	}
	return a.finishQuiz(m)
}

// Explain asks the explanation collaborator about the current question.
// Practice mode only.
func (a *App) Explain(ctx context.Context) error {
	if _, err := a.activeQuiz(); err != nil {
		return err
	}
	text, err := a.core.Explain(ctx)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// Hide simulates the quiz view losing visibility.
func (a *App) Hide(ctx context.Context) error {
	m, err := a.activeQuiz()
	if err != nil {
		return err
	}
	m.TabHidden(ctx)
	if m.State() == quiz.StateAborted {
		return a.finishQuiz(m)
	}
	if m.CheatingFlagged() {
		fmt.Println("Integrity violation recorded; the session submits on reconnect.")
	}
	return nil
}

// Nav simulates an attempted navigation away from the quiz view.
func (a *App) Nav(ctx context.Context) error {
	m, err := a.activeQuiz()
	if err != nil {
		return err
	}
	m.NavigationAttempt(ctx)
	if m.State() == quiz.StateAborted {
		return a.finishQuiz(m)
	}
	if m.CheatingFlagged() {
		fmt.Println("Integrity violation recorded; the session submits on reconnect.")
	}
	return nil
}
