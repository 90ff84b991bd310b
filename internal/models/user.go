package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// CredentialPair is the access/refresh token pair held by a credential store.
// Both tokens are always written together.
type CredentialPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Valid reports whether both tokens are present.
func (p CredentialPair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (t AuthTokens) Pair() CredentialPair {
	return CredentialPair{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ErrorBody is the error payload returned by the API for 4xx/5xx responses.
// Detail is usually a string but validation failures may carry a structure.
type ErrorBody struct {
	Detail json.RawMessage `json:"detail"`
}
