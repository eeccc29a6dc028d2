package quiz

import (
	"context"
	"errors"
)

var (
	ErrQuizNotFound  = errors.New("quiz not found")
	ErrInvalidQuizID = errors.New("invalid quiz id")
	ErrNoQuestions   = errors.New("no questions available")
)

// Repository is the document store holding quizzes and their question pools.
type Repository interface {
	ListQuizzes(ctx context.Context) ([]Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (Quiz, error)
	// GetQuizQuestions returns the whole pool in insertion order. It reports
	// ErrQuizNotFound for unknown quizzes and an empty slice for a quiz
	// without questions.
	GetQuizQuestions(ctx context.Context, quizID string) ([]Question, error)
	// SaveQuiz inserts or replaces a quiz together with its question pool.
	SaveQuiz(ctx context.Context, quiz Quiz, questions []Question) error
	// AppendQuestions adds questions to an existing quiz pool.
	AppendQuestions(ctx context.Context, quizID string, questions []Question) error
	// Reset drops every quiz and question.
	Reset(ctx context.Context) error
}
