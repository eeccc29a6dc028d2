package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"quiz-master/internal/quiz"
)

func (a *API) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Quiz not found"})
	case errors.Is(err, quiz.ErrInvalidQuizID):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid quiz id"})
	default:
		a.logger.Error(fallback, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fallback})
	}
}

func writeMethodNotAllowed(w http.ResponseWriter, allowedMethod string) {
	w.Header().Set("Allow", allowedMethod)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
