// Package quiz implements the timed-quiz session state machine: question
// flow, per-question countdown, offline pause with timeout auto-submit,
// integrity (cheating) detection, and crash-recoverable persistence.
//
// The machine consumes discrete events only (Tick, SetOnline, TabHidden,
// NavigationAttempt, SelectAnswer, Submit, Abandon); the host environment
// supplies visibility and navigation signals, and a Runner couples the
// machine to a real one-second ticker.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/client/storage"
	"github.com/studyhall/studyhall/internal/logging"
)

// State is the session's lifecycle position.
type State string

const (
	StateSelectingMode State = "selecting-mode"
	StateInProgress    State = "in-progress"
	StateFinished      State = "finished"
	StateAborted       State = "aborted"
)

// Mode is the chosen difficulty.
type Mode string

const (
	ModeHard     Mode = "hard"
	ModeMedium   Mode = "medium"
	ModeEasy     Mode = "easy"
	ModePractice Mode = "practice"
)

const (
	hardSeconds    = 10
	mediumSeconds  = 20
	minEasySeconds = 30

	// Offline policy: warn once at 240s, force-submit at 300s.
	offlineWarnAfter   = 240 * time.Second
	offlineSubmitAfter = 300 * time.Second

	// Grace delay before force-submitting a cheating-flagged session after
	// reconnect, so the UI can settle first.
	reconnectGrace = 500 * time.Millisecond

	keyPrefix = "quiz_session:"
)

var (
	ErrNotSelectingMode = errors.New("session already started")
	ErrNotInProgress    = errors.New("session not in progress")
	ErrEasyBudgetTooLow = errors.New("easy mode needs at least 30 seconds per question")
	ErrUnknownChoice    = errors.New("unknown answer choice")
)

// Snapshot is the persisted session state. Bare timer ticks are never
// persisted; everything else that mutates the session is.
type Snapshot struct {
	FlashcardID        string         `json:"flashcardId"`
	Mode               Mode           `json:"difficultyMode"`
	PerQuestionSeconds int            `json:"perQuestionSeconds"`
	Order              []int          `json:"order"`
	Index              int            `json:"currentQuestionIndex"`
	Answers            map[int]string `json:"selectedAnswers"`
	TimeRemaining      int            `json:"timeRemaining"`
	StartedAt          time.Time      `json:"startedAt"`
	CheatingFlagged    bool           `json:"cheatingFlag"`
	OfflineSince       *time.Time     `json:"offlineSince"`
	OfflineWarned      bool           `json:"offlineWarned"`
	State              State          `json:"state"`
}

// Machine drives one quiz session over a fixed question set.
type Machine struct {
	mu    sync.Mutex
	clock Clock
	store storage.Store
	log   logging.Logger

	questions  map[int]api.QuizQuestion
	snap       Snapshot
	online     bool
	graceTimer Timer
	onWarning  func()
}

// New creates a machine in selecting-mode for the given deck.
func New(flashcardID string, questions []api.QuizQuestion, store storage.Store, clock Clock, log logging.Logger) *Machine {
	m := &Machine{
		clock:     clock,
		store:     store,
		log:       log,
		questions: make(map[int]api.QuizQuestion, len(questions)),
		online:    true,
		snap: Snapshot{
			FlashcardID: flashcardID,
			Answers:     make(map[int]string),
			State:       StateSelectingMode,
		},
	}
	for _, q := range questions {
		m.questions[q.Number] = q
	}
	return m
}

// Restore rebuilds an in-progress machine from the persisted slot. The
// second return is false when no usable snapshot exists (missing, corrupt,
// or not in-progress); corrupt state never surfaces as an error.
func Restore(ctx context.Context, flashcardID string, questions []api.QuizQuestion, store storage.Store, clock Clock, log logging.Logger) (*Machine, bool) {
	data, err := store.Get(ctx, keyPrefix+flashcardID)
	if err != nil {
		log.Debug(ctx, "quiz slot unavailable", "flashcard", flashcardID, "error", err)
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Debug(ctx, "quiz slot corrupt, ignoring", "flashcard", flashcardID, "error", err)
		return nil, false
	}
	if snap.State != StateInProgress || snap.FlashcardID != flashcardID {
		return nil, false
	}
	if snap.Answers == nil {
		snap.Answers = make(map[int]string)
	}

	m := New(flashcardID, questions, store, clock, log)
	m.snap = snap
	if snap.CheatingFlagged {
		// The machine starts online, so restoring a flagged session counts
		// as its reconnection: the grace submit is armed immediately. A host
		// that is actually offline disarms it through SetOnline(false).
		m.armGraceSubmit()
	}
	return m, true
}

// SetOnWarning registers a callback fired once per offline episode when the
// offline warning threshold is crossed.
func (m *Machine) SetOnWarning(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWarning = fn
}

// Start moves selecting-mode → in-progress: fixes the per-question budget
// from the difficulty and shuffles the question order once for the whole
// session.
func (m *Machine) Start(ctx context.Context, mode Mode, easySeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap.State != StateSelectingMode {
		return ErrNotSelectingMode
	}

	var budget int
	switch mode {
	case ModeHard:
		budget = hardSeconds
	case ModeMedium:
		budget = mediumSeconds
	case ModeEasy:
		if easySeconds < minEasySeconds {
			return ErrEasyBudgetTooLow
		}
		budget = easySeconds
	case ModePractice:
		budget = 0
	default:
		return fmt.Errorf("unknown difficulty %q", mode)
	}

	order := make([]int, 0, len(m.questions))
	for n := range m.questions {
		order = append(order, n)
	}
	shuffle(order, rand.New(rand.NewSource(m.clock.Now().UnixNano())))

	m.snap.Mode = mode
	m.snap.PerQuestionSeconds = budget
	m.snap.Order = order
	m.snap.Index = 0
	m.snap.TimeRemaining = budget
	m.snap.StartedAt = m.clock.Now()
	m.snap.State = StateInProgress
	m.persistLocked(ctx)
	return nil
}

// shuffle is a Fisher–Yates pass over the question numbers.
func shuffle(order []int, rng *rand.Rand) {
	for i := len(order) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
}

// Tick advances the session by one second of wall time. While offline it
// only evaluates the offline policy; while online in a timed mode it
// decrements the countdown and auto-advances at zero. Bare ticks are not
// persisted. The offline warning callback is delivered synchronously,
// outside the lock, before Tick returns.
func (m *Machine) Tick(ctx context.Context) {
	if warn := m.tick(ctx); warn != nil {
		warn()
	}
}

func (m *Machine) tick(ctx context.Context) (warn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap.State != StateInProgress {
		return nil
	}

	if !m.online {
		if m.snap.OfflineSince == nil {
			return nil
		}
		elapsed := m.clock.Now().Sub(*m.snap.OfflineSince)
		if elapsed >= offlineSubmitAfter {
			m.finishLocked(ctx)
			return nil
		}
		if elapsed >= offlineWarnAfter && !m.snap.OfflineWarned {
			m.snap.OfflineWarned = true
			m.persistLocked(ctx)
			warn = m.onWarning
		}
		return warn
	}

	if m.snap.Mode == ModePractice {
		return nil
	}

	m.snap.TimeRemaining--
	if m.snap.TimeRemaining > 0 {
		return nil
	}
	m.advanceLocked(ctx)
	return nil
}

// SelectAnswer records the chosen letter for the current question.
func (m *Machine) SelectAnswer(ctx context.Context, letter string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap.State != StateInProgress {
		return ErrNotInProgress
	}
	q, ok := m.currentQuestionLocked()
	if !ok {
		return ErrNotInProgress
	}
	if _, ok := q.Choices[letter]; !ok {
		return ErrUnknownChoice
	}
	m.snap.Answers[q.Number] = letter
	m.persistLocked(ctx)
	return nil
}

// Skip advances to the next question without waiting for the timer.
func (m *Machine) Skip(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap.State != StateInProgress {
		return ErrNotInProgress
	}
	m.advanceLocked(ctx)
	return nil
}

// Submit ends the session immediately and clears the persisted slot.
func (m *Machine) Submit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap.State != StateInProgress {
		return ErrNotInProgress
	}
	m.finishLocked(ctx)
	return nil
}

// Abandon discards the session and clears the persisted slot.
func (m *Machine) Abandon(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap.State != StateInProgress {
		return ErrNotInProgress
	}
	m.abortLocked(ctx)
	return nil
}

// SetOnline feeds connectivity transitions from the network watcher.
// Going offline pauses the countdown and opens an offline episode. Coming
// back online closes it and, for a cheating-flagged session, schedules the
// delayed force-submit.
func (m *Machine) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if online == m.online {
		return
	}
	m.online = online

	if m.snap.State != StateInProgress {
		return
	}

	if !online {
		now := m.clock.Now()
		m.snap.OfflineSince = &now
		m.snap.OfflineWarned = false
		if m.graceTimer != nil {
			// Flagged submit waits for connectivity; the next reconnection
			// re-arms it.
			m.graceTimer.Stop()
			m.graceTimer = nil
		}
		m.persistLocked(ctx)
		return
	}

	m.snap.OfflineSince = nil
	m.persistLocked(ctx)

	if m.snap.CheatingFlagged {
		// Not immediate: the flagged session is submitted after a short
		// grace delay once connectivity is back.
		m.armGraceSubmit()
	}
}

// armGraceSubmit schedules the forced submit of a cheating-flagged session.
func (m *Machine) armGraceSubmit() {
	m.graceTimer = m.clock.AfterFunc(reconnectGrace, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.snap.State == StateInProgress {
			m.finishLocked(context.Background())
		}
	})
}

// TabHidden handles a visibility loss reported by the host.
func (m *Machine) TabHidden(ctx context.Context) {
	m.integrityBreach(ctx)
}

// NavigationAttempt handles an attempted in-app navigation reported by the
// host.
func (m *Machine) NavigationAttempt(ctx context.Context) {
	m.integrityBreach(ctx)
}

// integrityBreach applies the asymmetric cheating policy: online breaches
// abort immediately, offline breaches only flag the session for submission
// on reconnect.
func (m *Machine) integrityBreach(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap.State != StateInProgress {
		return
	}
	if m.online {
		m.abortLocked(ctx)
		return
	}
	if !m.snap.CheatingFlagged {
		m.snap.CheatingFlagged = true
		m.persistLocked(ctx)
	}
}

// Score grades the session over all questions of the deck; unanswered
// questions count as incorrect. Percent is 0–100.
func (m *Machine) Score() (correct, total int, percent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total = len(m.snap.Order)
	if total == 0 {
		return 0, 0, 0
	}
	for _, n := range m.snap.Order {
		if q, ok := m.questions[n]; ok && m.snap.Answers[n] == q.Answer {
			correct++
		}
	}
	return correct, total, float64(correct) / float64(total) * 100
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.State
}

// Mode returns the chosen difficulty.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Mode
}

// TimeRemaining returns the countdown for the current question.
func (m *Machine) TimeRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.TimeRemaining
}

// Index returns the zero-based position in the shuffled order.
func (m *Machine) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Index
}

// CheatingFlagged reports whether the session carries the integrity flag.
func (m *Machine) CheatingFlagged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.CheatingFlagged
}

// OfflineWarned reports whether this offline episode has raised its warning.
func (m *Machine) OfflineWarned() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.OfflineWarned
}

// Answers returns a copy of the recorded answers keyed by question number.
func (m *Machine) Answers() map[int]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]string, len(m.snap.Answers))
	for k, v := range m.snap.Answers {
		out[k] = v
	}
	return out
}

// CurrentQuestion returns the question at the session's current position.
func (m *Machine) CurrentQuestion() (api.QuizQuestion, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentQuestionLocked()
}

// CanExplain reports whether explanation requests apply (practice mode).
func (m *Machine) CanExplain() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Mode == ModePractice
}

func (m *Machine) currentQuestionLocked() (api.QuizQuestion, bool) {
	if m.snap.State != StateInProgress || m.snap.Index >= len(m.snap.Order) {
		return api.QuizQuestion{}, false
	}
	q, ok := m.questions[m.snap.Order[m.snap.Index]]
	return q, ok
}

func (m *Machine) advanceLocked(ctx context.Context) {
	m.snap.Index++
	if m.snap.Index >= len(m.snap.Order) {
		m.finishLocked(ctx)
		return
	}
	m.snap.TimeRemaining = m.snap.PerQuestionSeconds
	m.persistLocked(ctx)
}

func (m *Machine) finishLocked(ctx context.Context) {
	m.snap.State = StateFinished
	m.clearSlotLocked(ctx)
}

func (m *Machine) abortLocked(ctx context.Context) {
	m.snap.State = StateAborted
	m.clearSlotLocked(ctx)
}

func (m *Machine) clearSlotLocked(ctx context.Context) {
	if m.graceTimer != nil {
		m.graceTimer.Stop()
		m.graceTimer = nil
	}
	if err := m.store.Delete(ctx, keyPrefix+m.snap.FlashcardID); err != nil {
		m.log.Debug(ctx, "failed to clear quiz slot", "flashcard", m.snap.FlashcardID, "error", err)
	}
}

// persistLocked writes the snapshot to the per-flashcard slot. Storage
// failures are logged and swallowed: losing resume state must not break the
// running session.
func (m *Machine) persistLocked(ctx context.Context) {
	if m.snap.State != StateInProgress {
		return
	}
	data, err := json.Marshal(m.snap)
	if err != nil {
		m.log.Debug(ctx, "failed to encode quiz slot", "error", err)
		return
	}
	if err := m.store.Set(ctx, keyPrefix+m.snap.FlashcardID, data); err != nil {
		m.log.Debug(ctx, "failed to persist quiz slot", "flashcard", m.snap.FlashcardID, "error", err)
	}
}
