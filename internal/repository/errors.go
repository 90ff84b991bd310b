package repository

import "errors"

var (
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptFinished  = errors.New("attempt is no longer in progress")
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionSubmitted guards the one-way submitted flag.
	ErrQuestionSubmitted = errors.New("question already submitted")
	ErrDuplicateAttempt  = errors.New("attempt already exists")
)
