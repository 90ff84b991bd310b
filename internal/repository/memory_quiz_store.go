package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizclient/internal/models"
)

// MemoryQuizStore is an in-process attempt store with the same semantics as
// QuizRepo. Attempts are stored by value; callers always receive copies.
type MemoryQuizStore struct {
	mu       sync.RWMutex
	attempts map[uuid.UUID]*models.QuizAttempt
}

func NewMemoryQuizStore() *MemoryQuizStore {
	return &MemoryQuizStore{attempts: make(map[uuid.UUID]*models.QuizAttempt)}
}

func (s *MemoryQuizStore) CreateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.attempts[a.ID]; exists {
		return ErrDuplicateAttempt
	}
	s.attempts[a.ID] = a.Clone()
	return nil
}

func (s *MemoryQuizStore) GetAttempt(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryQuizStore) ListAttempts(ctx context.Context, f models.AttemptFilter) ([]*models.QuizAttempt, error) {
	s.mu.RLock()
	var out []*models.QuizAttempt
	for _, a := range s.attempts {
		if f.Matches(a) {
			out = append(out, a.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryQuizStore) UpdateProgress(ctx context.Context, id uuid.UUID, index, score int, status models.AttemptStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return ErrAttemptNotFound
	}
	if a.Status != models.AttemptInProgress {
		return ErrAttemptFinished
	}
	a.CurrentQuestionIndex = index
	a.Score = score
	a.Status = status
	return nil
}

// SubmitQuestion freezes the answer of q and records the attempt's new score
// in one step.
func (s *MemoryQuizStore) SubmitQuestion(ctx context.Context, attemptID uuid.UUID, q *models.StoredQuestion, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return ErrQuestionNotFound
	}
	for i := range a.Questions {
		stored := &a.Questions[i]
		if stored.ID != q.ID {
			continue
		}
		if stored.IsSubmitted {
			return ErrQuestionSubmitted
		}
		if a.Status != models.AttemptInProgress {
			return ErrAttemptFinished
		}
		frozen := q.Clone()
		stored.IsSubmitted = true
		stored.SelectedOptionIndex = frozen.SelectedOptionIndex
		stored.UserTextAnswer = frozen.UserTextAnswer
		a.Score = score
		return nil
	}
	return ErrQuestionNotFound
}

func (s *MemoryQuizStore) DeleteAttempt(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[id]; !ok {
		return ErrAttemptNotFound
	}
	delete(s.attempts, id)
	return nil
}
