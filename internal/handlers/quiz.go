package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"quizclient/internal/middleware"
	"quizclient/internal/models"
	"quizclient/internal/services"
)

type QuizHandler struct {
	quizService *services.QuizService
}

func NewQuizHandler(quizService *services.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := middleware.GetUserID(r.Context())
	resp, err := h.quizService.Start(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	log.Info().Str("attempt_id", resp.AttemptID.String()).Str("course_id", resp.CourseID).
		Int("questions", resp.QuestionNum).Msg("Quiz attempt started")
	writeJSON(w, http.StatusCreated, resp)
}

func (h *QuizHandler) Courses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": h.quizService.Courses()})
}
