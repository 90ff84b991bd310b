package account

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"quizclient/internal/client"
	"quizclient/internal/models"
)

type stubAuth struct {
	loginErr error
	meErr    error
	hasCreds bool
	onLogout []func()
}

func (s *stubAuth) Login(ctx context.Context, username, password string) error {
	if s.loginErr != nil {
		return s.loginErr
	}
	s.hasCreds = true
	return nil
}

func (s *stubAuth) Logout(ctx context.Context) {
	s.hasCreds = false
	for _, fn := range s.onLogout {
		fn()
	}
}

func (s *stubAuth) HasCredentials(ctx context.Context) bool { return s.hasCreds }

func (s *stubAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	if s.meErr != nil {
		return nil, s.meErr
	}
	return &models.User{ID: uuid.New(), Name: "Ada"}, nil
}

func (s *stubAuth) OnLogout(fn func()) { s.onLogout = append(s.onLogout, fn) }

func TestLoginAndLogout(t *testing.T) {
	ctx := context.Background()
	auth := &stubAuth{}
	acct := New(auth)

	if err := acct.Login(ctx, "ada", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := acct.LoadProfile(ctx); err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	s := acct.State()
	if !s.Authenticated || s.User == nil || s.Loading {
		t.Fatalf("unexpected state after login: %+v", s)
	}

	acct.Logout(ctx)
	s = acct.State()
	if s.Authenticated || s.User != nil {
		t.Fatalf("expected signed out state, got %+v", s)
	}
}

func TestLoginFailureSetsAlert(t *testing.T) {
	auth := &stubAuth{loginErr: &client.ClientError{Status: 400, Detail: "Incorrect username or password"}}
	acct := New(auth)

	if err := acct.Login(context.Background(), "ada", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	s := acct.State()
	if s.Authenticated || s.Alert == nil || s.Alert.Message != "Incorrect username or password" {
		t.Fatalf("unexpected state: %+v", s)
	}
}

func TestForcedLogoutDuringProfileLoad(t *testing.T) {
	auth := &stubAuth{hasCreds: true}
	acct := New(auth)
	if !acct.Restore(context.Background()) {
		t.Fatal("expected restored session")
	}

	// The client clears credentials and notifies listeners before returning.
	auth.meErr = client.ErrTokenNotFound
	for _, fn := range auth.onLogout {
		fn()
	}
	if _, err := acct.LoadProfile(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	s := acct.State()
	if s.Authenticated {
		t.Fatal("expected account to follow the forced logout")
	}
	if s.Alert == nil || s.Alert.Message != "Your session has expired. Please sign in again." {
		t.Fatalf("unexpected alert: %+v", s.Alert)
	}
}
