package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestQuestionPayloadToStored(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    QuestionType
		wantErr bool
	}{
		{"multiple choice", `{"id":"6f1c7b36-55b4-4a70-9a55-2a1d5b1c0c11","text":"2+2","question_type":"multiple_choice","details":{"options":["3","4"],"correct_answer":1}}`, MultipleChoice, false},
		{"fill in the blank", `{"text":"Capital","question_type":"fill_in_the_blank","details":{"expected_answers":["Paris"]}}`, FillInBlank, false},
		{"calculation with precision", `{"text":"Pi","question_type":"calculation","details":{"expected_answers":["3.14"],"precision":2}}`, Calculation, false},
		{"unknown tag", `{"text":"?","question_type":"essay","details":{}}`, "", true},
		{"local tag is not a wire tag", `{"text":"?","question_type":"fill_in_blank","details":{"expected_answers":["x"]}}`, "", true},
		{"correct answer out of range", `{"text":"?","question_type":"multiple_choice","details":{"options":["a"],"correct_answer":3}}`, "", true},
		{"malformed details", `{"text":"?","question_type":"calculation","details":"nope"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p QuestionPayload
			if err := json.Unmarshal([]byte(tt.payload), &p); err != nil {
				t.Fatalf("unmarshal payload: %v", err)
			}
			q, err := p.ToStored(4)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ToStored: %v", err)
			}
			if q.Type != tt.want || q.Position != 4 || q.IsSubmitted {
				t.Fatalf("unexpected question: %+v", q)
			}
			if q.ID == uuid.Nil {
				t.Fatal("expected an id to be assigned")
			}
			if _, err := q.ParsedDetails(); err != nil {
				t.Fatalf("ParsedDetails: %v", err)
			}
		})
	}
}

func TestNewQuestionPayloadUsesWireTag(t *testing.T) {
	p, err := NewQuestionPayload(uuid.New(), "Capital", FillInBlankDetails{ExpectedAnswers: []string{"Paris"}})
	if err != nil {
		t.Fatalf("NewQuestionPayload: %v", err)
	}
	if p.QuestionType != "fill_in_the_blank" {
		t.Fatalf("expected wire tag, got %q", p.QuestionType)
	}

	q, err := p.ToStored(0)
	if err != nil {
		t.Fatalf("ToStored: %v", err)
	}
	details, err := q.ParsedDetails()
	if err != nil {
		t.Fatalf("ParsedDetails: %v", err)
	}
	fb, ok := details.(FillInBlankDetails)
	if !ok || len(fb.ExpectedAnswers) != 1 || fb.ExpectedAnswers[0] != "Paris" {
		t.Fatalf("unexpected details: %#v", details)
	}
}

func TestStartQuizResponseToAttempt(t *testing.T) {
	raw := `{"attempt_id":"0b8f0d0e-8d39-4c3c-9a55-111111111111","course_id":"math","questions":[
		{"text":"2+2","question_type":"multiple_choice","details":{"options":["3","4"],"correct_answer":1}},
		{"text":"Pi","question_type":"calculation","details":{"expected_answers":["3.14"]}}]}`
	var resp StartQuizResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	a, err := resp.ToAttempt()
	if err != nil {
		t.Fatalf("ToAttempt: %v", err)
	}
	if a.Status != AttemptInProgress || a.QuestionCount != 2 || a.CurrentQuestionIndex != 0 {
		t.Fatalf("unexpected attempt: %+v", a)
	}
	if a.Questions[1].Position != 1 {
		t.Fatalf("expected positions in server order")
	}

	clone := a.Clone()
	clone.Questions[0].Text = "changed"
	if a.Questions[0].Text == "changed" {
		t.Fatal("Clone shares question storage")
	}
}
