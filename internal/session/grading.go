package session

import (
	"fmt"
	"strings"

	"quizclient/internal/models"
)

// Grade reports whether the answer recorded on q is correct.
//
// Multiple choice compares the selected index; fill in the blank accepts any
// expected answer ignoring case and surrounding space; calculation requires an
// exact string match after trimming the user's input.
func Grade(q models.StoredQuestion) (bool, error) {
	details, err := q.ParsedDetails()
	if err != nil {
		return false, err
	}

	switch d := details.(type) {
	case models.MultipleChoiceDetails:
		return q.SelectedOptionIndex != nil && *q.SelectedOptionIndex == d.CorrectAnswer, nil
	case models.FillInBlankDetails:
		answer := strings.TrimSpace(textAnswer(q))
		for _, expected := range d.ExpectedAnswers {
			if strings.EqualFold(answer, strings.TrimSpace(expected)) {
				return true, nil
			}
		}
		return false, nil
	case models.CalculationDetails:
		answer := strings.TrimSpace(textAnswer(q))
		for _, expected := range d.ExpectedAnswers {
			if answer == expected {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("cannot grade question type %q", q.Type)
}

func textAnswer(q models.StoredQuestion) string {
	if q.UserTextAnswer == nil {
		return ""
	}
	return *q.UserTextAnswer
}
