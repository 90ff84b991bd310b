package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"quizclient/internal/models"
)

var (
	ErrInvalidURL     = errors.New("invalid url")
	ErrDecodingFailed = errors.New("failed to decode response")
	// ErrTokenNotFound means there is no usable credential; callers treat it
	// as "user logged out".
	ErrTokenNotFound  = errors.New("access token not found")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrUnknown        = errors.New("unknown error")
)

const (
	genericClientMessage = "The request could not be completed."
	genericServerMessage = "The server encountered an error. Please try again later."
)

// ClientError is a 4xx response other than a recoverable 401.
type ClientError struct {
	Status int
	Detail string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.Status, e.Detail)
}

// ServerError is a 5xx response.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Detail)
}

// parseDetail extracts the API's detail string, falling back when the body is
// missing or carries a structured detail.
func parseDetail(body []byte, fallback string) string {
	var eb models.ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return fallback
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err != nil || s == "" {
		return fallback
	}
	return s
}

// IsAuthFailure reports whether err means the user must sign in again.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrNoRefreshToken)
}
