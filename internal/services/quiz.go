package services

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"quizclient/internal/models"
)

const maxQuestionsPerAttempt = 50

// QuizService hands out attempts drawn from a fixed per-course question bank.
type QuizService struct {
	bank    map[string][]models.QuestionPayload
	// shuffle is off in tests so question order is predictable.
	shuffle bool
}

func NewQuizService(bank map[string][]models.QuestionPayload, shuffle bool) *QuizService {
	return &QuizService{bank: bank, shuffle: shuffle}
}

func (s *QuizService) Courses() []string {
	courses := make([]string, 0, len(s.bank))
	for c := range s.bank {
		courses = append(courses, c)
	}
	sort.Strings(courses)
	return courses
}

func (s *QuizService) Start(ctx context.Context, userID uuid.UUID, req models.StartQuizRequest) (*models.StartQuizResponse, error) {
	if req.CourseID == "" {
		return nil, &BadRequestError{Message: "course_id is required"}
	}
	if req.QuestionNum <= 0 || req.QuestionNum > maxQuestionsPerAttempt {
		return nil, &BadRequestError{Message: fmt.Sprintf("question_num must be between 1 and %d", maxQuestionsPerAttempt)}
	}
	pool, ok := s.bank[req.CourseID]
	if !ok || len(pool) == 0 {
		return nil, &NotFoundError{Message: "Course not found"}
	}

	order := make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	if s.shuffle {
		order = rand.Perm(len(pool))
	}
	n := min(req.QuestionNum, len(pool))

	questions := make([]models.QuestionPayload, 0, n)
	for _, i := range order[:n] {
		q := pool[i]
		// Each attempt gets its own question ids.
		q.ID = uuid.New()
		questions = append(questions, q)
	}

	return &models.StartQuizResponse{
		AttemptID:   uuid.New(),
		UserID:      userID,
		CourseID:    req.CourseID,
		QuestionNum: n,
		Status:      models.AttemptInProgress,
		CreatedAt:   time.Now().UTC(),
		Questions:   questions,
	}, nil
}

// DefaultQuestionBank is served by the mock API.
func DefaultQuestionBank() map[string][]models.QuestionPayload {
	two := 2
	return map[string][]models.QuestionPayload{
		"math-101": mustPayloads([]bankEntry{
			{"What is 7 x 8?", models.MultipleChoiceDetails{Options: []string{"54", "56", "64", "48"}, CorrectAnswer: 1}},
			{"Which number is prime?", models.MultipleChoiceDetails{Options: []string{"21", "27", "29", "33"}, CorrectAnswer: 2}},
			{"Round pi to two decimal places.", models.CalculationDetails{ExpectedAnswers: []string{"3.14"}, Precision: &two}},
			{"What is 12 squared?", models.CalculationDetails{ExpectedAnswers: []string{"144"}}},
			{"A triangle's angles sum to ___ degrees.", models.FillInBlankDetails{ExpectedAnswers: []string{"180", "one hundred eighty"}}},
		}),
		"geo-101": mustPayloads([]bankEntry{
			{"The capital of France is ___.", models.FillInBlankDetails{ExpectedAnswers: []string{"Paris"}}},
			{"Which is the largest ocean?", models.MultipleChoiceDetails{Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, CorrectAnswer: 2}},
			{"The longest river in Africa is the ___.", models.FillInBlankDetails{ExpectedAnswers: []string{"Nile"}}},
			{"How many continents are there?", models.CalculationDetails{ExpectedAnswers: []string{"7"}}},
		}),
	}
}

type bankEntry struct {
	text    string
	details models.QuestionDetails
}

func mustPayloads(entries []bankEntry) []models.QuestionPayload {
	out := make([]models.QuestionPayload, 0, len(entries))
	for _, e := range entries {
		p, err := models.NewQuestionPayload(uuid.Nil, e.text, e.details)
		if err != nil {
			panic(err)
		}
		out = append(out, p)
	}
	return out
}
