package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quizclient/internal/middleware"
	"quizclient/internal/models"
)

const (
	passwordCost    = 12
	refreshTokenTTL = 7 * 24 * time.Hour
)

type directoryEntry struct {
	user         models.User
	passwordHash []byte
}

// AuthService signs users in against an in-memory directory and rotates
// refresh tokens on every use.
type AuthService struct {
	jwt    *middleware.JWTAuth
	tokens RefreshTokenStore

	mu         sync.RWMutex
	byUsername map[string]*directoryEntry
	byID       map[uuid.UUID]*directoryEntry
}

func NewAuthService(jwt *middleware.JWTAuth, tokens RefreshTokenStore) *AuthService {
	return &AuthService{
		jwt:        jwt,
		tokens:     tokens,
		byUsername: make(map[string]*directoryEntry),
		byID:       make(map[uuid.UUID]*directoryEntry),
	}
}

// AddUser registers a user who signs in with their email as username.
func (s *AuthService) AddUser(name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, &BadRequestError{Message: "Email and password are required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUsername[email]; exists {
		return nil, &ConflictError{Message: "Email already in use"}
	}
	entry := &directoryEntry{
		user:         models.User{ID: uuid.New(), Name: name, Email: email},
		passwordHash: hash,
	}
	s.byUsername[email] = entry
	s.byID[entry.user.ID] = entry
	u := entry.user
	return &u, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	s.mu.RLock()
	entry, ok := s.byUsername[strings.ToLower(strings.TrimSpace(req.Username))]
	s.mu.RUnlock()
	if !ok {
		return nil, &BadRequestError{Message: "Incorrect username or password"}
	}
	if err := bcrypt.CompareHashAndPassword(entry.passwordHash, []byte(req.Password)); err != nil {
		return nil, &BadRequestError{Message: "Incorrect username or password"}
	}
	return s.issueTokens(ctx, entry.user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	if refreshToken == "" {
		return nil, &UnauthorizedError{Message: "Invalid refresh token"}
	}
	userID, err := s.tokens.Take(ctx, refreshToken)
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	user, err := s.User(ctx, userID)
	if err != nil {
		return nil, &UnauthorizedError{Message: "Account no longer exists"}
	}
	return s.issueTokens(ctx, *user)
}

func (s *AuthService) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byID[id]
	if !ok {
		return nil, &NotFoundError{Message: "User not found"}
	}
	u := entry.user
	return &u, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(32)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Put(ctx, refreshToken, user.ID, refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Custom errors
type BadRequestError struct{ Message string }

func (e *BadRequestError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }
