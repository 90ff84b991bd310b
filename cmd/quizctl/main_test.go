package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"quizclient/internal/account"
	"quizclient/internal/client"
	"quizclient/internal/credentials"
	"quizclient/internal/handlers"
	"quizclient/internal/middleware"
	"quizclient/internal/models"
	"quizclient/internal/repository"
	"quizclient/internal/router"
	"quizclient/internal/services"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	jwtAuth := middleware.NewJWTAuth("cli-secret", time.Minute)
	auth := services.NewAuthService(jwtAuth, services.NewMemoryRefreshTokens())
	if _, err := auth.AddUser("Ada", "ada@example.com", "password123"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	srv := httptest.NewServer(router.New(
		jwtAuth,
		nil,
		handlers.NewAuthHandler(auth),
		handlers.NewQuizHandler(services.NewQuizService(services.DefaultQuestionBank(), false)),
	))
	t.Cleanup(srv.Close)

	c := client.New(credentials.NewMemoryStore(), client.Options{BaseURL: srv.URL})
	return &app{
		client:   c,
		account:  account.New(c),
		attempts: repository.NewMemoryQuizStore(),
	}
}

func TestPlayResumesAfterInterruptedInput(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	if err := a.account.Login(ctx, "ada@example.com", "password123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	var out bytes.Buffer
	if err := a.play(ctx, "geo-101", 2, strings.NewReader("paris\n"), &out); err != nil {
		t.Fatalf("first play: %v", err)
	}
	if !strings.Contains(out.String(), "Correct!") || !strings.Contains(out.String(), "Progress saved.") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	if err := a.play(ctx, "geo-101", 2, strings.NewReader("x\n3\n"), &out); err != nil {
		t.Fatalf("second play: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Question 2/2") || strings.Contains(got, "Question 1/2") {
		t.Fatalf("expected to resume at the second question:\n%s", got)
	}
	if !strings.Contains(got, "Invalid answer") || !strings.Contains(got, "Finished: 2/2 correct.") {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestPlayRequiresSignIn(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer
	err := a.play(context.Background(), "geo-101", 2, strings.NewReader(""), &out)
	if !client.IsAuthFailure(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

func TestPlayKeepsUngradedQuestion(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	if err := a.account.Login(ctx, "ada@example.com", "password123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	userID, err := a.client.CurrentUserID(ctx)
	if err != nil {
		t.Fatalf("CurrentUserID: %v", err)
	}
	broken := &models.QuizAttempt{
		ID:            uuid.New(),
		UserID:        userID,
		CourseID:      "geo-101",
		QuestionCount: 1,
		Status:        models.AttemptInProgress,
		Questions: []models.StoredQuestion{
			{ID: uuid.New(), Text: "Capital of France", Type: models.FillInBlank, Details: json.RawMessage(`"broken"`)},
		},
	}
	if err := a.attempts.CreateAttempt(ctx, broken); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}

	var out bytes.Buffer
	if err := a.play(ctx, "geo-101", 1, strings.NewReader("paris\n"), &out); err != nil {
		t.Fatalf("play: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Unable to grade answer") || !strings.Contains(got, "Progress saved.") {
		t.Fatalf("expected grading alert and a saved exit:\n%s", got)
	}
	if strings.Contains(got, "Incorrect.") || strings.Contains(got, "Finished") {
		t.Fatalf("ungraded question was skipped:\n%s", got)
	}
}

// answerlessStore keeps attempts but cannot save answers.
type answerlessStore struct {
	*repository.MemoryQuizStore
}

func (answerlessStore) SubmitQuestion(context.Context, uuid.UUID, *models.StoredQuestion, int) error {
	return errors.New("disk unavailable")
}

func TestPlayMovesOnAfterUnsavedAnswer(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	a.attempts = answerlessStore{repository.NewMemoryQuizStore()}
	if err := a.account.Login(ctx, "ada@example.com", "password123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	var out bytes.Buffer
	if err := a.play(ctx, "geo-101", 2, strings.NewReader("paris\n"), &out); err != nil {
		t.Fatalf("play: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Answer not saved") || !strings.Contains(got, "Correct!") {
		t.Fatalf("expected graded answer with a save alert:\n%s", got)
	}
	if !strings.Contains(got, "Question 2/2") {
		t.Fatalf("expected to move on to the second question:\n%s", got)
	}
}
