package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quizclient/internal/models"
)

// Login exchanges a username and password for a credential pair and stores it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	tokens, err := Request[models.AuthTokens](ctx, c, loginEndpoint(username, password))
	if err != nil {
		return err
	}
	return c.AdoptCredentials(ctx, tokens.Pair())
}

// AdoptCredentials stores a pair obtained outside the client, such as from an
// identity-token sign-in.
func (c *Client) AdoptCredentials(ctx context.Context, pair models.CredentialPair) error {
	if !pair.Valid() {
		return fmt.Errorf("%w: response missing tokens", ErrDecodingFailed)
	}
	return c.store.Save(ctx, pair)
}

// Logout clears stored credentials and notifies logout listeners.
func (c *Client) Logout(ctx context.Context) {
	c.forceLogout(ctx)
}

// HasCredentials reports whether an access token is stored.
func (c *Client) HasCredentials(ctx context.Context) bool {
	pair, err := c.store.Load(ctx)
	return err == nil && pair.AccessToken != ""
}

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := Request[models.User](ctx, c, meEndpoint())
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// StartQuiz asks the server for a new attempt and converts it into a local
// attempt ready to persist.
func (c *Client) StartQuiz(ctx context.Context, courseID string, questionCount int) (*models.QuizAttempt, error) {
	resp, err := Request[models.StartQuizResponse](ctx, c, startQuizEndpoint(courseID, questionCount))
	if err != nil {
		return nil, err
	}
	attempt, err := resp.ToAttempt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}
	return attempt, nil
}

var errNoUserClaim = errors.New("access token carries no user id")

// CurrentUserID reads the user id claim of the stored access token. The token
// is not verified; the id only scopes local data.
func (c *Client) CurrentUserID(ctx context.Context) (uuid.UUID, error) {
	pair, err := c.store.Load(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if pair.AccessToken == "" {
		return uuid.Nil, ErrTokenNotFound
	}
	return userIDFromToken(pair.AccessToken)
}

func userIDFromToken(token string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return uuid.Nil, fmt.Errorf("parse access token: %w", err)
	}
	for _, key := range []string{"user_id", "sub"} {
		if s, ok := claims[key].(string); ok {
			if id, err := uuid.Parse(s); err == nil {
				return id, nil
			}
		}
	}
	return uuid.Nil, errNoUserClaim
}
