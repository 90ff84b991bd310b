package account

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"quizclient/internal/client"
	"quizclient/internal/models"
)

// Authenticator is the part of the API client the account state needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context)
	HasCredentials(ctx context.Context) bool
	CurrentUser(ctx context.Context) (*models.User, error)
	OnLogout(fn func())
}

// Account tracks whether the user is signed in. It follows forced logouts
// raised by the client when a session cannot be recovered.
type Account struct {
	auth Authenticator

	mu            sync.Mutex
	authenticated bool
	loading       bool
	alert         *models.Alert
	user          *models.User
}

type State struct {
	Authenticated bool
	Loading       bool
	Alert         *models.Alert
	User          *models.User
}

func New(auth Authenticator) *Account {
	a := &Account{auth: auth}
	auth.OnLogout(a.signedOut)
	return a
}

// Restore marks the account signed in when credentials survive from an earlier run.
func (a *Account) Restore(ctx context.Context) bool {
	ok := a.auth.HasCredentials(ctx)
	a.mu.Lock()
	a.authenticated = ok
	a.mu.Unlock()
	return ok
}

func (a *Account) Login(ctx context.Context, username, password string) error {
	a.begin()
	defer a.end()

	if err := a.auth.Login(ctx, username, password); err != nil {
		log.Warn().Err(err).Msg("Login failed")
		a.fail("Sign in failed", err)
		return err
	}
	a.mu.Lock()
	a.authenticated = true
	a.mu.Unlock()
	return nil
}

func (a *Account) Logout(ctx context.Context) {
	a.auth.Logout(ctx)
}

// LoadProfile fetches the signed-in user.
func (a *Account) LoadProfile(ctx context.Context) (*models.User, error) {
	a.begin()
	defer a.end()

	user, err := a.auth.CurrentUser(ctx)
	if err != nil {
		a.fail("Unable to load profile", err)
		return nil, err
	}
	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
	return user, nil
}

func (a *Account) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := State{Authenticated: a.authenticated, Loading: a.loading}
	if a.alert != nil {
		alert := *a.alert
		s.Alert = &alert
	}
	if a.user != nil {
		u := *a.user
		s.User = &u
	}
	return s
}

func (a *Account) signedOut() {
	a.mu.Lock()
	a.authenticated = false
	a.user = nil
	a.mu.Unlock()
	log.Info().Msg("Signed out")
}

func (a *Account) begin() {
	a.mu.Lock()
	a.loading = true
	a.alert = nil
	a.mu.Unlock()
}

func (a *Account) end() {
	a.mu.Lock()
	a.loading = false
	a.mu.Unlock()
}

func (a *Account) fail(title string, err error) {
	a.mu.Lock()
	a.alert = client.AlertFor(title, err)
	a.mu.Unlock()
}
