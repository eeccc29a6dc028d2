package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"quiz-master/internal/quiz"
)

func (a *API) HandleListQuizzes(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	quizzes, err := a.catalog.ListQuizzes(r.Context())
	if err != nil {
		a.logger.Error("list quizzes failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch quizzes"})
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (a *API) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	quizID := mux.Vars(r)["quizId"]
	item, err := a.catalog.GetQuiz(r.Context(), quizID)
	if err != nil {
		a.writeServiceError(w, err, "Failed to fetch quiz")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleQuestions serves a fresh random selection for one attempt. A quiz
// without questions yields an empty array so clients can report it.
func (a *API) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	quizID := mux.Vars(r)["quizId"]
	questions, err := a.catalog.SelectQuestions(r.Context(), quizID)
	if err != nil {
		if errors.Is(err, quiz.ErrNoQuestions) {
			writeJSON(w, http.StatusOK, []quiz.Question{})
			return
		}
		a.writeServiceError(w, err, "Failed to fetch questions")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func healthHandler(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
