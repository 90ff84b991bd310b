package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"quizclient/internal/models"
)

func newAttempt(userID uuid.UUID, courseID string, createdAt time.Time) *models.QuizAttempt {
	return &models.QuizAttempt{
		ID:            uuid.New(),
		UserID:        userID,
		CourseID:      courseID,
		QuestionCount: 2,
		Status:        models.AttemptInProgress,
		CreatedAt:     createdAt,
		Questions: []models.StoredQuestion{
			{ID: uuid.New(), Position: 0, Text: "2+2", Type: models.Calculation, Details: json.RawMessage(`{"expected_answers":["4"]}`)},
			{ID: uuid.New(), Position: 1, Text: "Capital of France", Type: models.FillInBlank, Details: json.RawMessage(`{"expected_answers":["Paris"]}`)},
		},
	}
}

func TestMemoryQuizStore_ListAttemptsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryQuizStore()
	user := uuid.New()
	now := time.Now()

	older := newAttempt(user, "math", now.Add(-time.Hour))
	newer := newAttempt(user, "math", now)
	otherCourse := newAttempt(user, "geo", now)
	otherUser := newAttempt(uuid.New(), "math", now.Add(time.Minute))
	for _, a := range []*models.QuizAttempt{older, newer, otherCourse, otherUser} {
		if err := s.CreateAttempt(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.ListAttempts(ctx, models.AttemptFilter{UserID: user, CourseID: "math", Status: models.AttemptInProgress})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Fatalf("expected most recent first")
	}

	limited, _ := s.ListAttempts(ctx, models.AttemptFilter{CourseID: "math", Limit: 1})
	if len(limited) != 1 || limited[0].ID != otherUser.ID {
		t.Fatalf("expected newest math attempt across users, got %+v", limited)
	}
}

func TestMemoryQuizStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryQuizStore()
	a := newAttempt(uuid.New(), "math", time.Now())
	s.CreateAttempt(ctx, a)

	a.Score = 99
	got, _ := s.GetAttempt(ctx, a.ID)
	if got.Score != 0 {
		t.Fatalf("store shares memory with caller")
	}
	got.Questions[0].IsSubmitted = true
	again, _ := s.GetAttempt(ctx, a.ID)
	if again.Questions[0].IsSubmitted {
		t.Fatalf("store shares question memory with caller")
	}
}

func TestMemoryQuizStore_SubmitQuestionIsOneWay(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryQuizStore()
	a := newAttempt(uuid.New(), "math", time.Now())
	s.CreateAttempt(ctx, a)

	q := a.Questions[0]
	answer := "4"
	q.UserTextAnswer = &answer
	if err := s.SubmitQuestion(ctx, a.ID, &q, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	changed := "5"
	q.UserTextAnswer = &changed
	if err := s.SubmitQuestion(ctx, a.ID, &q, 2); !errors.Is(err, ErrQuestionSubmitted) {
		t.Fatalf("expected ErrQuestionSubmitted, got %v", err)
	}

	got, _ := s.GetAttempt(ctx, a.ID)
	if !got.Questions[0].IsSubmitted || *got.Questions[0].UserTextAnswer != "4" {
		t.Fatalf("expected frozen answer 4, got %+v", got.Questions[0])
	}
	if got.Score != 1 {
		t.Fatalf("expected score written with the answer, got %d", got.Score)
	}
}

func TestMemoryQuizStore_FinishedAttemptRejectsProgress(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryQuizStore()
	a := newAttempt(uuid.New(), "math", time.Now())
	s.CreateAttempt(ctx, a)

	if err := s.UpdateProgress(ctx, a.ID, 1, 1, models.AttemptCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := s.UpdateProgress(ctx, a.ID, 0, 0, models.AttemptInProgress); !errors.Is(err, ErrAttemptFinished) {
		t.Fatalf("expected ErrAttemptFinished, got %v", err)
	}
	if err := s.UpdateProgress(ctx, uuid.New(), 0, 0, models.AttemptInProgress); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}

	q := a.Questions[1]
	if err := s.SubmitQuestion(ctx, a.ID, &q, 2); !errors.Is(err, ErrAttemptFinished) {
		t.Fatalf("expected ErrAttemptFinished on submit, got %v", err)
	}
	got, _ := s.GetAttempt(ctx, a.ID)
	if got.Score != 1 || got.Questions[1].IsSubmitted {
		t.Fatalf("expected finished attempt untouched, got %+v", got)
	}
}

func TestMemoryQuizStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryQuizStore()
	a := newAttempt(uuid.New(), "math", time.Now())
	s.CreateAttempt(ctx, a)

	if err := s.DeleteAttempt(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetAttempt(ctx, a.ID); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
	q := a.Questions[0]
	if err := s.SubmitQuestion(ctx, a.ID, &q, 1); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected questions gone with attempt, got %v", err)
	}
	if err := s.CreateAttempt(ctx, a); err != nil {
		t.Fatalf("expected id reusable after delete: %v", err)
	}
	if err := s.CreateAttempt(ctx, a); !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("expected ErrDuplicateAttempt, got %v", err)
	}
}
