package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"quizclient/internal/models"
)

func TestQuizServiceStart(t *testing.T) {
	svc := NewQuizService(DefaultQuestionBank(), false)
	user := uuid.New()

	resp, err := svc.Start(context.Background(), user, models.StartQuizRequest{CourseID: "geo-101", QuestionNum: 10})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.QuestionNum != 4 || len(resp.Questions) != 4 {
		t.Fatalf("expected request capped at bank size, got %d", resp.QuestionNum)
	}
	if resp.UserID != user || resp.Status != models.AttemptInProgress {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Questions[0].QuestionType != "fill_in_the_blank" {
		t.Fatalf("expected wire tag, got %q", resp.Questions[0].QuestionType)
	}

	attempt, err := resp.ToAttempt()
	if err != nil {
		t.Fatalf("ToAttempt: %v", err)
	}
	if attempt.ID != resp.AttemptID || attempt.Questions[0].Type != models.FillInBlank {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}
}

func TestQuizServiceStartRejectsBadRequests(t *testing.T) {
	svc := NewQuizService(DefaultQuestionBank(), true)

	tests := []struct {
		name string
		req  models.StartQuizRequest
		want interface{}
	}{
		{"missing course", models.StartQuizRequest{QuestionNum: 3}, &BadRequestError{}},
		{"zero questions", models.StartQuizRequest{CourseID: "math-101"}, &BadRequestError{}},
		{"unknown course", models.StartQuizRequest{CourseID: "art-101", QuestionNum: 3}, &NotFoundError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(context.Background(), uuid.New(), tt.req)
			switch tt.want.(type) {
			case *BadRequestError:
				var target *BadRequestError
				if !errors.As(err, &target) {
					t.Fatalf("expected BadRequestError, got %v", err)
				}
			case *NotFoundError:
				var target *NotFoundError
				if !errors.As(err, &target) {
					t.Fatalf("expected NotFoundError, got %v", err)
				}
			}
		})
	}
}
