package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// QuestionType is the local discriminant for question details.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	FillInBlank    QuestionType = "fill_in_blank"
	Calculation    QuestionType = "calculation"
)

// Wire tags used by the API's question_type field.
const (
	wireMultipleChoice = "multiple_choice"
	wireFillInBlank    = "fill_in_the_blank"
	wireCalculation    = "calculation"
)

// ParseWireQuestionType maps the API tag onto the local type.
func ParseWireQuestionType(tag string) (QuestionType, error) {
	switch tag {
	case wireMultipleChoice:
		return MultipleChoice, nil
	case wireFillInBlank:
		return FillInBlank, nil
	case wireCalculation:
		return Calculation, nil
	}
	return "", fmt.Errorf("unknown question type %q", tag)
}

// WireTag is the inverse of ParseWireQuestionType.
func (t QuestionType) WireTag() string {
	switch t {
	case FillInBlank:
		return wireFillInBlank
	case Calculation:
		return wireCalculation
	}
	return wireMultipleChoice
}

// QuestionDetails is implemented by the per-type detail payloads. Each variant
// carries only its own fields.
type QuestionDetails interface {
	QuestionType() QuestionType
}

type MultipleChoiceDetails struct {
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

func (MultipleChoiceDetails) QuestionType() QuestionType { return MultipleChoice }

type FillInBlankDetails struct {
	ExpectedAnswers []string `json:"expected_answers"`
}

func (FillInBlankDetails) QuestionType() QuestionType { return FillInBlank }

type CalculationDetails struct {
	ExpectedAnswers []string `json:"expected_answers"`
	Precision       *int     `json:"precision,omitempty"`
}

func (CalculationDetails) QuestionType() QuestionType { return Calculation }

// DecodeDetails decodes raw into the variant selected by t.
func DecodeDetails(t QuestionType, raw json.RawMessage) (QuestionDetails, error) {
	switch t {
	case MultipleChoice:
		var d MultipleChoiceDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode multiple choice details: %w", err)
		}
		if d.CorrectAnswer < 0 || d.CorrectAnswer >= len(d.Options) {
			return nil, fmt.Errorf("correct answer %d out of range for %d options", d.CorrectAnswer, len(d.Options))
		}
		return d, nil
	case FillInBlank:
		var d FillInBlankDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode fill in blank details: %w", err)
		}
		return d, nil
	case Calculation:
		var d CalculationDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode calculation details: %w", err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown question type %q", t)
}

// QuestionPayload is a question as served by the start quiz endpoint.
type QuestionPayload struct {
	ID           uuid.UUID       `json:"id"`
	Text         string          `json:"text"`
	QuestionType string          `json:"question_type"`
	Details      json.RawMessage `json:"details"`
}

// NewQuestionPayload encodes typed details under their wire tag.
func NewQuestionPayload(id uuid.UUID, text string, d QuestionDetails) (QuestionPayload, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return QuestionPayload{}, err
	}
	return QuestionPayload{
		ID:           id,
		Text:         text,
		QuestionType: d.QuestionType().WireTag(),
		Details:      raw,
	}, nil
}

// ToStored validates the payload and converts it into an unanswered question.
func (p QuestionPayload) ToStored(position int) (StoredQuestion, error) {
	t, err := ParseWireQuestionType(p.QuestionType)
	if err != nil {
		return StoredQuestion{}, err
	}
	if _, err := DecodeDetails(t, p.Details); err != nil {
		return StoredQuestion{}, fmt.Errorf("question %s: %w", p.ID, err)
	}
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return StoredQuestion{
		ID:       id,
		Position: position,
		Text:     p.Text,
		Type:     t,
		Details:  append(json.RawMessage(nil), p.Details...),
	}, nil
}
