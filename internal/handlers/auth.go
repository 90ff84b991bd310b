package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"quizclient/internal/middleware"
	"quizclient/internal/models"
	"quizclient/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login takes an OAuth2 password-style form body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteDetail(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	req := models.LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": []map[string]string{{"loc": "body", "msg": "username and password are required"}},
		})
		return
	}

	tokens, err := h.authService.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.User(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		badRequest   *services.BadRequestError
		conflict     *services.ConflictError
		notFound     *services.NotFoundError
		unauthorized *services.UnauthorizedError
	)
	switch {
	case errors.As(err, &badRequest):
		middleware.WriteDetail(w, http.StatusBadRequest, badRequest.Message)
	case errors.As(err, &conflict):
		middleware.WriteDetail(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &notFound):
		middleware.WriteDetail(w, http.StatusNotFound, notFound.Message)
	case errors.As(err, &unauthorized):
		middleware.WriteDetail(w, http.StatusUnauthorized, unauthorized.Message)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled service error")
		middleware.WriteDetail(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
