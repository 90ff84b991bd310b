package credentials

import (
	"context"
	"errors"

	"quizclient/internal/models"
)

var ErrIncompletePair = errors.New("credential pair must carry both access and refresh tokens")

// Store is durable, secret-safe storage for the access/refresh token pair.
// Load returns an empty pair when nothing is stored.
type Store interface {
	Load(ctx context.Context) (models.CredentialPair, error)
	Save(ctx context.Context, pair models.CredentialPair) error
	Clear(ctx context.Context) error
}

// StoreError indicates a credential storage failure.
type StoreError struct {
	Operation string // "load", "save", "clear"
	Cause     error
}

func (e *StoreError) Error() string {
	msg := e.Operation + " credentials"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
