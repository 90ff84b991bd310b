package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAborted    AttemptStatus = "aborted"
)

func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptInProgress, AttemptCompleted, AttemptAborted:
		return true
	}
	return false
}

// QuizAttempt is one student's run through a quiz for a course. It owns its
// questions; deleting the attempt deletes them.
type QuizAttempt struct {
	ID                   uuid.UUID        `json:"attempt_id"`
	UserID               uuid.UUID        `json:"user_id"`
	CourseID             string           `json:"course_id"`
	QuestionCount        int              `json:"question_num"`
	Status               AttemptStatus    `json:"status"`
	CreatedAt            time.Time        `json:"created_at"`
	CurrentQuestionIndex int              `json:"current_question_index"`
	Score                int              `json:"score"`
	Questions            []StoredQuestion `json:"questions"`
}

// LastIndex returns the index of the final question, or -1 for an empty attempt.
func (a *QuizAttempt) LastIndex() int {
	return len(a.Questions) - 1
}

// CurrentQuestion returns the question under the index pointer, or nil when
// the attempt has no questions.
func (a *QuizAttempt) CurrentQuestion() *StoredQuestion {
	if a.CurrentQuestionIndex < 0 || a.CurrentQuestionIndex >= len(a.Questions) {
		return nil
	}
	return &a.Questions[a.CurrentQuestionIndex]
}

// Clone returns a deep copy so callers cannot mutate store-owned state.
func (a *QuizAttempt) Clone() *QuizAttempt {
	if a == nil {
		return nil
	}
	c := *a
	c.Questions = make([]StoredQuestion, len(a.Questions))
	for i := range a.Questions {
		c.Questions[i] = a.Questions[i].Clone()
	}
	return &c
}

type StoredQuestion struct {
	ID                  uuid.UUID       `json:"id"`
	Position            int             `json:"position"`
	Text                string          `json:"text"`
	Type                QuestionType    `json:"type"`
	Details             json.RawMessage `json:"details"`
	IsSubmitted         bool            `json:"is_submitted"`
	SelectedOptionIndex *int            `json:"selected_option_index"`
	UserTextAnswer      *string         `json:"user_text_answer"`
}

func (q StoredQuestion) Clone() StoredQuestion {
	c := q
	if q.Details != nil {
		c.Details = append(json.RawMessage(nil), q.Details...)
	}
	if q.SelectedOptionIndex != nil {
		v := *q.SelectedOptionIndex
		c.SelectedOptionIndex = &v
	}
	if q.UserTextAnswer != nil {
		v := *q.UserTextAnswer
		c.UserTextAnswer = &v
	}
	return c
}

// ParsedDetails decodes the stored payload into its typed variant.
func (q StoredQuestion) ParsedDetails() (QuestionDetails, error) {
	return DecodeDetails(q.Type, q.Details)
}

type StartQuizRequest struct {
	CourseID    string `json:"course_id"`
	QuestionNum int    `json:"question_num"`
}

type StartQuizResponse struct {
	AttemptID   uuid.UUID         `json:"attempt_id"`
	UserID      uuid.UUID         `json:"user_id"`
	CourseID    string            `json:"course_id"`
	QuestionNum int               `json:"question_num"`
	Status      AttemptStatus     `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	Questions   []QuestionPayload `json:"questions"`
}

// ToAttempt builds a fresh local attempt from the server response.
func (r *StartQuizResponse) ToAttempt() (*QuizAttempt, error) {
	status := r.Status
	if status == "" {
		status = AttemptInProgress
	}
	a := &QuizAttempt{
		ID:            r.AttemptID,
		UserID:        r.UserID,
		CourseID:      r.CourseID,
		QuestionCount: r.QuestionNum,
		Status:        status,
		CreatedAt:     r.CreatedAt,
		Questions:     make([]StoredQuestion, 0, len(r.Questions)),
	}
	if a.QuestionCount == 0 {
		a.QuestionCount = len(r.Questions)
	}
	for i, p := range r.Questions {
		q, err := p.ToStored(i)
		if err != nil {
			return nil, err
		}
		a.Questions = append(a.Questions, q)
	}
	return a, nil
}

// AttemptFilter narrows attempt queries. Zero fields match anything.
type AttemptFilter struct {
	UserID   uuid.UUID
	CourseID string
	Status   AttemptStatus
	Limit    int
}

// Matches reports whether a satisfies the filter.
func (f AttemptFilter) Matches(a *QuizAttempt) bool {
	if f.UserID != uuid.Nil && a.UserID != f.UserID {
		return false
	}
	if f.CourseID != "" && a.CourseID != f.CourseID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}
