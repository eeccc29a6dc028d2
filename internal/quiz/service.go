package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultRounds            = 3
	DefaultQuestionsPerRound = 5

	maxQuizIDLength = 64
)

type Service struct {
	repo     Repository
	cache    Cache
	logger   *zap.Logger
	rounds   int
	perRound int

	randMu sync.Mutex
	rand   *rand.Rand
}

type ServiceOption func(*Service)

// WithLayout sets how many rounds a session has and how many questions each
// round holds.
func WithLayout(rounds, perRound int) ServiceOption {
	return func(s *Service) {
		if rounds > 0 {
			s.rounds = rounds
		}
		if perRound > 0 {
			s.perRound = perRound
		}
	}
}

func WithRand(r *rand.Rand) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.rand = r
		}
	}
}

// NewService wires the catalog. cache and logger may be nil.
func NewService(repo Repository, cache Cache, logger *zap.Logger, opts ...ServiceOption) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		repo:     repo,
		cache:    cache,
		logger:   logger,
		rounds:   DefaultRounds,
		perRound: DefaultQuestionsPerRound,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) QuestionsPerSession() int {
	return s.rounds * s.perRound
}

func (s *Service) QuestionsPerRound() int {
	return s.perRound
}

func (s *Service) ListQuizzes(ctx context.Context) ([]Quiz, error) {
	if cached, ok, err := s.cache.GetCatalog(ctx); err != nil {
		s.logger.Warn("catalog cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	quizzes, err := s.repo.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	if err := s.cache.SetCatalog(ctx, quizzes); err != nil {
		s.logger.Warn("catalog cache write failed", zap.Error(err))
	}
	return quizzes, nil
}

func (s *Service) GetQuiz(ctx context.Context, quizID string) (Quiz, error) {
	quizID, err := normalizeQuizID(quizID)
	if err != nil {
		return Quiz{}, err
	}

	if cached, ok, err := s.cache.GetCatalog(ctx); err == nil && ok {
		for _, item := range cached {
			if item.ID == quizID {
				return item, nil
			}
		}
	}

	item, err := s.repo.GetQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, ErrQuizNotFound) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, fmt.Errorf("get quiz %s: %w", quizID, err)
	}
	return item, nil
}

// SelectQuestions draws a uniformly random subset of the quiz pool, at most
// rounds*perRound long, and annotates each question with its round and
// position within the round.
func (s *Service) SelectQuestions(ctx context.Context, quizID string) ([]Question, error) {
	quizID, err := normalizeQuizID(quizID)
	if err != nil {
		return nil, err
	}

	pool, err := s.questionPool(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestions
	}

	selected := s.shuffleWithLimit(pool, s.QuestionsPerSession())
	for idx := range selected {
		selected[idx].Round = idx/s.perRound + 1
		selected[idx].QuestionInRound = idx%s.perRound + 1
	}
	return selected, nil
}

// Invalidate drops every cached catalog entry.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

func (s *Service) questionPool(ctx context.Context, quizID string) ([]Question, error) {
	if cached, ok, err := s.cache.GetQuestions(ctx, quizID); err != nil {
		s.logger.Warn("question cache read failed", zap.String("quiz_id", quizID), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	pool, err := s.repo.GetQuizQuestions(ctx, quizID)
	if err != nil {
		if errors.Is(err, ErrQuizNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("load questions for %s: %w", quizID, err)
	}

	if err := s.cache.SetQuestions(ctx, quizID, pool); err != nil {
		s.logger.Warn("question cache write failed", zap.String("quiz_id", quizID), zap.Error(err))
	}
	return pool, nil
}

// shuffleWithLimit runs a Fisher-Yates shuffle over a copy of pool and keeps
// the first limit entries.
func (s *Service) shuffleWithLimit(pool []Question, limit int) []Question {
	shuffled := make([]Question, len(pool))
	copy(shuffled, pool)

	s.randMu.Lock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	s.randMu.Unlock()

	if limit <= 0 || limit > len(shuffled) {
		limit = len(shuffled)
	}
	return shuffled[:limit]
}

func normalizeQuizID(quizID string) (string, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" || len(quizID) > maxQuizIDLength {
		return "", ErrInvalidQuizID
	}
	for _, r := range quizID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return "", ErrInvalidQuizID
		}
	}
	return quizID, nil
}
