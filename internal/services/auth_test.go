package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizclient/internal/middleware"
	"quizclient/internal/models"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	svc := NewAuthService(middleware.NewJWTAuth("test-secret", time.Minute), NewMemoryRefreshTokens())
	if _, err := svc.AddUser("Ada", "ada@example.com", "password123"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	return svc
}

func TestAuthServiceLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	tokens, err := svc.Login(ctx, models.LoginRequest{Username: "ADA@example.com ", Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.TokenType != "bearer" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}

	_, err = svc.Login(ctx, models.LoginRequest{Username: "ada@example.com", Password: "nope"})
	var bad *BadRequestError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadRequestError, got %v", err)
	}
}

func TestAuthServiceRefreshRotates(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, models.LoginRequest{Username: "ada@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	second, err := svc.RefreshToken(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if second.AccessToken == first.AccessToken || second.RefreshToken == first.RefreshToken {
		t.Fatal("expected both tokens to rotate")
	}

	_, err = svc.RefreshToken(ctx, first.RefreshToken)
	var unauthorized *UnauthorizedError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected reused refresh token to be rejected, got %v", err)
	}
}

func TestAuthServiceDuplicateUser(t *testing.T) {
	svc := newTestAuthService(t)
	_, err := svc.AddUser("Ada again", "ada@example.com", "password123")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}
