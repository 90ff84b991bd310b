package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"quizclient/internal/client"
	"quizclient/internal/models"
)

var (
	ErrNoActiveAttempt = errors.New("no active attempt")
	ErrNoQuestion      = errors.New("attempt has no current question")
	ErrNoAnswer        = errors.New("no answer given")
	ErrInvalidOption   = errors.New("option index out of range")
)

// AttemptStore is local durable storage for attempts and their questions.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, a *models.QuizAttempt) error
	ListAttempts(ctx context.Context, f models.AttemptFilter) ([]*models.QuizAttempt, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, index, score int, status models.AttemptStatus) error
	SubmitQuestion(ctx context.Context, attemptID uuid.UUID, q *models.StoredQuestion, score int) error
}

// QuizAPI starts new attempts on the server.
type QuizAPI interface {
	StartQuiz(ctx context.Context, courseID string, questionCount int) (*models.QuizAttempt, error)
}

// UserResolver identifies the signed-in user so local attempts are scoped to them.
type UserResolver interface {
	CurrentUserID(ctx context.Context) (uuid.UUID, error)
}

// Manager owns the active quiz attempt: it resumes local progress when present,
// fetches new attempts otherwise, and drives the answer lifecycle.
//
// Writes for one attempt are applied in the order they were issued; writes for
// different attempts do not block each other.
type Manager struct {
	api   QuizAPI
	store AttemptStore
	users UserResolver
	locks *keyedMutex

	mu      sync.Mutex
	phase   Phase
	loading bool
	alert   *models.Alert
	attempt *models.QuizAttempt
	draft   draft
}

func NewManager(api QuizAPI, store AttemptStore, users UserResolver) *Manager {
	return &Manager{
		api:   api,
		store: store,
		users: users,
		locks: newKeyedMutex(),
	}
}

// StartQuiz makes an attempt for courseID current. An in-progress attempt in
// the local store is resumed without contacting the server; otherwise a new
// attempt is fetched and persisted.
func (m *Manager) StartQuiz(ctx context.Context, courseID string, questionCount int) (*models.QuizAttempt, error) {
	unlock := m.locks.Lock("course:" + courseID)
	defer unlock()

	m.mu.Lock()
	previous := m.phase
	m.alert = nil
	m.loading = true
	m.phase = PhaseLoading
	m.mu.Unlock()
	defer m.setLoading(false)

	userID := m.resolveUser(ctx)

	if attempt := m.findResumable(ctx, userID, courseID); attempt != nil {
		log.Info().Str("attempt_id", attempt.ID.String()).Str("course_id", courseID).
			Int("index", attempt.CurrentQuestionIndex).Msg("Resuming quiz attempt")
		m.activate(attempt)
		return attempt.Clone(), nil
	}

	attempt, err := m.api.StartQuiz(ctx, courseID, questionCount)
	if err != nil {
		log.Warn().Err(err).Str("course_id", courseID).Msg("Failed to start quiz")
		m.mu.Lock()
		if previous == PhaseLoading {
			previous = PhaseNotStarted
		}
		m.phase = previous
		m.alert = client.AlertFor("Unable to start quiz", err)
		m.mu.Unlock()
		return nil, err
	}
	if attempt.UserID == uuid.Nil {
		attempt.UserID = userID
	}
	if attempt.CourseID == "" {
		attempt.CourseID = courseID
	}
	if attempt.Status == "" {
		attempt.Status = models.AttemptInProgress
	}

	persistErr := m.store.CreateAttempt(context.WithoutCancel(ctx), attempt.Clone())
	m.activate(attempt)
	if persistErr != nil {
		log.Error().Err(persistErr).Str("attempt_id", attempt.ID.String()).Msg("Failed to save new attempt")
		m.mu.Lock()
		m.alert = &models.Alert{Title: "Progress not saved", Message: "This attempt could not be saved on this device."}
		m.mu.Unlock()
	}
	return attempt.Clone(), nil
}

func (m *Manager) resolveUser(ctx context.Context) uuid.UUID {
	if m.users == nil {
		return uuid.Nil
	}
	id, err := m.users.CurrentUserID(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("User id unavailable, local lookup not scoped to a user")
		return uuid.Nil
	}
	return id
}

// findResumable returns the newest in-progress attempt, or nil. Store failures
// are logged and treated as "nothing to resume".
func (m *Manager) findResumable(ctx context.Context, userID uuid.UUID, courseID string) *models.QuizAttempt {
	attempts, err := m.store.ListAttempts(ctx, models.AttemptFilter{
		UserID:   userID,
		CourseID: courseID,
		Status:   models.AttemptInProgress,
		Limit:    1,
	})
	if err != nil {
		log.Warn().Err(err).Str("course_id", courseID).Msg("Failed to read local attempts, fetching from server")
		return nil
	}
	if len(attempts) == 0 {
		return nil
	}
	return attempts[0]
}

func (m *Manager) activate(a *models.QuizAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempt = a
	m.draft = draftFrom(a.CurrentQuestion())
	if a.Status == models.AttemptInProgress {
		m.phase = PhaseActive
	} else {
		m.phase = PhaseFinished
	}
}

// SelectOption records the chosen option of a multiple choice question.
// It has no effect once the question is submitted.
func (m *Manager) SelectOption(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := m.currentLocked()
	if err != nil {
		return err
	}
	if q.IsSubmitted {
		return nil
	}
	details, err := q.ParsedDetails()
	if err != nil {
		return err
	}
	mc, ok := details.(models.MultipleChoiceDetails)
	if !ok {
		return fmt.Errorf("question %s is not multiple choice", q.ID)
	}
	if index < 0 || index >= len(mc.Options) {
		return ErrInvalidOption
	}
	m.draft.selected = &index
	return nil
}

// SetTextAnswer records the typed answer of a fill in the blank or calculation
// question. It has no effect once the question is submitted.
func (m *Manager) SetTextAnswer(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := m.currentLocked()
	if err != nil {
		return err
	}
	if q.IsSubmitted {
		return nil
	}
	if q.Type == models.MultipleChoice {
		return fmt.Errorf("question %s is multiple choice", q.ID)
	}
	m.draft.text = text
	return nil
}

// SubmitAnswer grades the current question and freezes its answer. Calling it
// on a submitted question does nothing and reports false.
func (m *Manager) SubmitAnswer(ctx context.Context) (bool, error) {
	id, err := m.activeID()
	if err != nil {
		return false, err
	}
	unlock := m.locks.Lock(id.String())
	defer unlock()

	m.mu.Lock()
	if m.attempt == nil || m.attempt.ID != id {
		m.mu.Unlock()
		return false, ErrNoActiveAttempt
	}
	m.alert = nil
	a := m.attempt
	q := a.CurrentQuestion()
	if a.Status != models.AttemptInProgress || (q != nil && q.IsSubmitted) {
		m.mu.Unlock()
		return false, nil
	}
	if q == nil {
		m.mu.Unlock()
		return false, ErrNoQuestion
	}

	answered := q.Clone()
	if q.Type == models.MultipleChoice {
		if m.draft.selected == nil {
			m.mu.Unlock()
			return false, ErrNoAnswer
		}
		sel := *m.draft.selected
		answered.SelectedOptionIndex = &sel
	} else {
		if strings.TrimSpace(m.draft.text) == "" {
			m.mu.Unlock()
			return false, ErrNoAnswer
		}
		text := m.draft.text
		answered.UserTextAnswer = &text
	}

	correct, err := Grade(answered)
	if err != nil {
		m.alert = &models.Alert{Title: "Unable to grade answer", Message: err.Error()}
		m.mu.Unlock()
		return false, err
	}

	answered.IsSubmitted = true
	*q = answered.Clone()
	if correct {
		a.Score++
	}
	score := a.Score
	m.draft = draftFrom(q)
	m.loading = true
	m.mu.Unlock()
	defer m.setLoading(false)

	// The in-memory state has moved on, so the write must land even if the
	// caller stops waiting.
	wctx := context.WithoutCancel(ctx)
	if persistErr := m.store.SubmitQuestion(wctx, id, &answered, score); persistErr != nil {
		log.Error().Err(persistErr).Str("attempt_id", id.String()).Msg("Failed to save answer")
		m.setAlert(&models.Alert{Title: "Answer not saved", Message: "Your answer was graded but could not be saved on this device."})
		return correct, fmt.Errorf("save answer: %w", persistErr)
	}
	return correct, nil
}

// AdvanceToNextQuestion moves to the next question, or completes the attempt
// when the current question is the last one. Advancing a completed attempt
// does nothing.
func (m *Manager) AdvanceToNextQuestion(ctx context.Context) error {
	id, err := m.activeID()
	if err != nil {
		return err
	}
	unlock := m.locks.Lock(id.String())
	defer unlock()

	m.mu.Lock()
	if m.attempt == nil || m.attempt.ID != id {
		m.mu.Unlock()
		return ErrNoActiveAttempt
	}
	m.alert = nil
	a := m.attempt
	if a.Status != models.AttemptInProgress {
		m.mu.Unlock()
		return nil
	}

	if a.CurrentQuestionIndex < a.LastIndex() {
		a.CurrentQuestionIndex++
		m.draft = draftFrom(a.CurrentQuestion())
	} else {
		a.Status = models.AttemptCompleted
		m.phase = PhaseFinished
		log.Info().Str("attempt_id", id.String()).Int("score", a.Score).Int("questions", len(a.Questions)).Msg("Quiz attempt completed")
	}
	index, score, status := a.CurrentQuestionIndex, a.Score, a.Status
	m.loading = true
	m.mu.Unlock()
	defer m.setLoading(false)

	if err := m.store.UpdateProgress(context.WithoutCancel(ctx), id, index, score, status); err != nil {
		log.Error().Err(err).Str("attempt_id", id.String()).Msg("Failed to save progress")
		m.setAlert(&models.Alert{Title: "Progress not saved", Message: "Your progress could not be saved on this device."})
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// AbortAttempt abandons the active attempt so the next StartQuiz for the
// course fetches a fresh one.
func (m *Manager) AbortAttempt(ctx context.Context) error {
	id, err := m.activeID()
	if err != nil {
		return err
	}
	unlock := m.locks.Lock(id.String())
	defer unlock()

	m.mu.Lock()
	if m.attempt == nil || m.attempt.ID != id {
		m.mu.Unlock()
		return ErrNoActiveAttempt
	}
	m.alert = nil
	a := m.attempt
	if a.Status != models.AttemptInProgress {
		m.mu.Unlock()
		return nil
	}
	a.Status = models.AttemptAborted
	m.phase = PhaseFinished
	index, score := a.CurrentQuestionIndex, a.Score
	m.mu.Unlock()

	if err := m.store.UpdateProgress(context.WithoutCancel(ctx), id, index, score, models.AttemptAborted); err != nil {
		log.Error().Err(err).Str("attempt_id", id.String()).Msg("Failed to save aborted attempt")
		m.setAlert(&models.Alert{Title: "Progress not saved", Message: "The attempt could not be updated on this device."})
		return fmt.Errorf("abort attempt: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the observable state.
func (m *Manager) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{Phase: m.phase, Loading: m.loading}
	if m.alert != nil {
		alert := *m.alert
		v.Alert = &alert
	}
	if a := m.attempt; a != nil {
		v.AttemptID = a.ID
		v.CourseID = a.CourseID
		v.Status = a.Status
		v.Score = a.Score
		v.QuestionCount = len(a.Questions)
		v.Question = questionView(a, m.draft)
	}
	return v
}

// Attempt returns a copy of the active attempt, or nil.
func (m *Manager) Attempt() *models.QuizAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt.Clone()
}

// DismissAlert clears the active alert.
func (m *Manager) DismissAlert() {
	m.setAlert(nil)
}

func (m *Manager) activeID() (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempt == nil {
		return uuid.Nil, ErrNoActiveAttempt
	}
	return m.attempt.ID, nil
}

func (m *Manager) currentLocked() (*models.StoredQuestion, error) {
	if m.attempt == nil {
		return nil, ErrNoActiveAttempt
	}
	q := m.attempt.CurrentQuestion()
	if q == nil {
		return nil, ErrNoQuestion
	}
	return q, nil
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *Manager) setAlert(a *models.Alert) {
	m.mu.Lock()
	m.alert = a
	m.mu.Unlock()
}
