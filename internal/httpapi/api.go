package httpapi

import (
	"context"

	"go.uber.org/zap"

	"quiz-master/internal/quiz"
)

// Catalog is the part of quiz.Service the HTTP layer reads from.
type Catalog interface {
	ListQuizzes(ctx context.Context) ([]quiz.Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error)
	SelectQuestions(ctx context.Context, quizID string) ([]quiz.Question, error)
}

type API struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewAPI(catalog Catalog, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		catalog: catalog,
		logger:  logger,
	}
}
