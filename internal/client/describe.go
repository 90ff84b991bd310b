package client

import (
	"context"
	"errors"

	"quizclient/internal/models"
)

// AlertFor turns an operation error into a user-facing alert. Server-provided
// details are shown verbatim.
func AlertFor(title string, err error) *models.Alert {
	if err == nil {
		return nil
	}
	return &models.Alert{Title: title, Message: Describe(err)}
}

func Describe(err error) string {
	var ce *ClientError
	var se *ServerError
	switch {
	case IsAuthFailure(err):
		return "Your session has expired. Please sign in again."
	case errors.As(err, &ce):
		return ce.Detail
	case errors.As(err, &se):
		return se.Detail
	case errors.Is(err, ErrDecodingFailed):
		return "Received an unexpected response from the server."
	case errors.Is(err, ErrInvalidURL):
		return "The server address is not configured correctly."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request did not complete. Please try again."
	}
	return "Something went wrong. Please try again."
}
