package session

import (
	"github.com/google/uuid"

	"quizclient/internal/models"
)

type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseLoading
	PhaseActive
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseFinished:
		return "finished"
	}
	return "not_started"
}

// QuestionView is the UI-facing state of the current question. Answer keys
// are never exposed.
type QuestionView struct {
	ID                  uuid.UUID
	Index               int
	Text                string
	Type                models.QuestionType
	Options             []string
	IsSubmitted         bool
	SelectedOptionIndex *int
	TextAnswer          string
}

// View is a point-in-time copy of the manager's observable state.
type View struct {
	Phase         Phase
	Loading       bool
	Alert         *models.Alert
	AttemptID     uuid.UUID
	CourseID      string
	Status        models.AttemptStatus
	Score         int
	QuestionCount int
	Question      *QuestionView
}

// draft is the pending answer for the current question.
type draft struct {
	selected  *int
	text      string
	submitted bool
}

func draftFrom(q *models.StoredQuestion) draft {
	if q == nil {
		return draft{}
	}
	d := draft{submitted: q.IsSubmitted}
	if q.SelectedOptionIndex != nil {
		v := *q.SelectedOptionIndex
		d.selected = &v
	}
	if q.UserTextAnswer != nil {
		d.text = *q.UserTextAnswer
	}
	return d
}

func questionView(a *models.QuizAttempt, d draft) *QuestionView {
	q := a.CurrentQuestion()
	if q == nil {
		return nil
	}
	v := &QuestionView{
		ID:          q.ID,
		Index:       a.CurrentQuestionIndex,
		Text:        q.Text,
		Type:        q.Type,
		IsSubmitted: d.submitted,
		TextAnswer:  d.text,
	}
	if d.selected != nil {
		sel := *d.selected
		v.SelectedOptionIndex = &sel
	}
	if details, err := q.ParsedDetails(); err == nil {
		if mc, ok := details.(models.MultipleChoiceDetails); ok {
			v.Options = append([]string(nil), mc.Options...)
		}
	}
	return v
}
