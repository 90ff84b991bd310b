package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"quizclient/internal/models"
)

type BodyKind int

const (
	BodyJSON BodyKind = iota
	BodyForm
)

type Body struct {
	Kind  BodyKind
	Value any
}

func JSONBody(v any) *Body {
	return &Body{Kind: BodyJSON, Value: v}
}

func FormBody(values url.Values) *Body {
	return &Body{Kind: BodyForm, Value: values}
}

// encode returns the payload and its content type. It is called once per send
// so retries never reuse a drained reader.
func (b *Body) encode() (io.Reader, string, error) {
	switch b.Kind {
	case BodyForm:
		values, ok := b.Value.(url.Values)
		if !ok {
			return nil, "", fmt.Errorf("form body must be url.Values, got %T", b.Value)
		}
		return bytes.NewBufferString(values.Encode()), "application/x-www-form-urlencoded", nil
	default:
		data, err := json.Marshal(b.Value)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// Endpoint describes one API call.
type Endpoint struct {
	Path         string
	Method       string
	Body         *Body
	RequiresAuth bool
}

const (
	pathLogin     = "/users/login"
	pathRefresh   = "/users/refresh"
	pathMe        = "/users/me"
	pathStartQuiz = "/quizzes/start"
)

func loginEndpoint(username, password string) Endpoint {
	return Endpoint{
		Path:   pathLogin,
		Method: "POST",
		Body:   FormBody(url.Values{"username": {username}, "password": {password}}),
	}
}

func meEndpoint() Endpoint {
	return Endpoint{Path: pathMe, Method: "GET", RequiresAuth: true}
}

func startQuizEndpoint(courseID string, questionCount int) Endpoint {
	return Endpoint{
		Path:         pathStartQuiz,
		Method:       "POST",
		Body:         JSONBody(models.StartQuizRequest{CourseID: courseID, QuestionNum: questionCount}),
		RequiresAuth: true,
	}
}

func resolveURL(baseURL, path string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: base %q", ErrInvalidURL, baseURL)
	}
	u, err := url.JoinPath(base.String(), path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return u, nil
}
