package session

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"quizclient/internal/models"
)

func textQuestion(t models.QuestionType, details string, answer string) models.StoredQuestion {
	return models.StoredQuestion{
		ID:             uuid.New(),
		Type:           t,
		Details:        json.RawMessage(details),
		UserTextAnswer: &answer,
	}
}

func TestGrade(t *testing.T) {
	one, two := 1, 2
	mc := `{"options":["3","4","5"],"correct_answer":1}`

	tests := []struct {
		name string
		q    models.StoredQuestion
		want bool
	}{
		{"mc correct", models.StoredQuestion{Type: models.MultipleChoice, Details: json.RawMessage(mc), SelectedOptionIndex: &one}, true},
		{"mc wrong", models.StoredQuestion{Type: models.MultipleChoice, Details: json.RawMessage(mc), SelectedOptionIndex: &two}, false},
		{"mc unanswered", models.StoredQuestion{Type: models.MultipleChoice, Details: json.RawMessage(mc)}, false},
		{"blank ignores case", textQuestion(models.FillInBlank, `{"expected_answers":["Paris"]}`, "paris"), true},
		{"blank trims", textQuestion(models.FillInBlank, `{"expected_answers":["Paris"]}`, "  PARIS \n"), true},
		{"blank second answer", textQuestion(models.FillInBlank, `{"expected_answers":["Paris","Lutetia"]}`, "lutetia"), true},
		{"blank wrong", textQuestion(models.FillInBlank, `{"expected_answers":["Paris"]}`, "Lyon"), false},
		{"calc exact", textQuestion(models.Calculation, `{"expected_answers":["3.14","3.141"]}`, "3.14"), true},
		{"calc trims input", textQuestion(models.Calculation, `{"expected_answers":["3.14","3.141"]}`, " 3.141 "), true},
		{"calc no numeric equivalence", textQuestion(models.Calculation, `{"expected_answers":["3.14","3.141"]}`, "3.140"), false},
		{"calc ignores precision", textQuestion(models.Calculation, `{"expected_answers":["2"],"precision":3}`, "2.000"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Grade(tt.q)
			if err != nil {
				t.Fatalf("Grade() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Grade() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGradeRejectsBrokenDetails(t *testing.T) {
	q := models.StoredQuestion{Type: models.MultipleChoice, Details: json.RawMessage(`{"options":["a"],"correct_answer":4}`)}
	if _, err := Grade(q); err == nil {
		t.Fatal("expected error for out of range correct answer")
	}
}
