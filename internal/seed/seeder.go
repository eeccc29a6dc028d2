// Package seed rebuilds the quiz store from a catalog file and tops quizzes
// up with generated text questions.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-master/internal/opentdb"
	"quiz-master/internal/quiz"
)

const defaultTopUpPause = 5 * time.Second

type Fetcher interface {
	Fetch(ctx context.Context, query opentdb.Query) ([]opentdb.RawQuestion, error)
}

// Invalidator drops cached catalog data after a reseed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Seeder struct {
	repo    quiz.Repository
	logger  *zap.Logger
	fetcher Fetcher
	cache   Invalidator
	newID   func() string
	rand    *rand.Rand
	// pause separates top-up batches; Open Trivia DB allows one call per 5s.
	pause time.Duration
}

type Option func(*Seeder)

// WithFetcher enables top-ups. Without it topUp entries are ignored.
func WithFetcher(fetcher Fetcher) Option {
	return func(s *Seeder) {
		s.fetcher = fetcher
	}
}

func WithInvalidator(cache Invalidator) Option {
	return func(s *Seeder) {
		s.cache = cache
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Seeder) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithRand(r *rand.Rand) Option {
	return func(s *Seeder) {
		s.rand = r
	}
}

func WithTopUpPause(d time.Duration) Option {
	return func(s *Seeder) {
		if d >= 0 {
			s.pause = d
		}
	}
}

func NewSeeder(repo quiz.Repository, logger *zap.Logger, opts ...Option) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Seeder{
		repo:   repo,
		logger: logger,
		newID:  func() string { return uuid.New().String() },
		pause:  defaultTopUpPause,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report counts what a run stored.
type Report struct {
	Quizzes       int
	Questions     int
	Generated     int
	FailedTopUps  int
	GeneratedByID map[string]int
}

// Run replaces the store contents with catalog. Store errors abort the run;
// top-up failures are logged and skipped.
func (s *Seeder) Run(ctx context.Context, catalog Catalog) (Report, error) {
	if err := catalog.Validate(); err != nil {
		return Report{}, err
	}

	report := Report{GeneratedByID: make(map[string]int)}
	if err := s.repo.Reset(ctx); err != nil {
		return report, fmt.Errorf("reset store: %w", err)
	}
	s.logger.Info("cleared quizzes and questions")

	fetched := false
	for _, spec := range catalog.Quizzes {
		item := quiz.Quiz{
			ID:          spec.ID,
			Title:       spec.Title,
			Description: spec.Description,
			Category:    spec.Category,
			Difficulty:  spec.Difficulty,
		}
		if item.ID == "" {
			item.ID = s.newID()
		}

		questions := s.authoredQuestions(item.ID, spec.Questions)
		if err := s.repo.SaveQuiz(ctx, item, questions); err != nil {
			return report, fmt.Errorf("save quiz %q: %w", item.Title, err)
		}
		report.Quizzes++
		report.Questions += len(questions)
		s.logger.Info("inserted quiz",
			zap.String("quiz_id", item.ID),
			zap.String("title", item.Title),
			zap.Int("questions", len(questions)),
		)

		if spec.TopUp == nil || spec.TopUp.Amount == 0 || s.fetcher == nil {
			continue
		}
		if fetched {
			if err := s.wait(ctx); err != nil {
				return report, err
			}
		}
		fetched = true

		generated, err := s.topUp(ctx, item.ID, *spec.TopUp)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.FailedTopUps++
			s.logger.Warn("top-up failed", zap.String("quiz_id", item.ID), zap.Error(err))
		}
		report.Generated += generated
		report.Questions += generated
		report.GeneratedByID[item.ID] = generated
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("seeding complete",
		zap.Int("quizzes", report.Quizzes),
		zap.Int("questions", report.Questions),
		zap.Int("generated", report.Generated),
	)
	return report, nil
}

func (s *Seeder) authoredQuestions(quizID string, specs []QuestionSpec) []quiz.Question {
	questions := make([]quiz.Question, 0, len(specs))
	for _, spec := range specs {
		timer := spec.Timer
		if timer <= 0 {
			timer = quiz.DefaultTimerSeconds
		}
		options := make([]quiz.Option, 0, len(spec.Options))
		for _, opt := range spec.Options {
			options = append(options, quiz.Option{Text: opt.Text, IsCorrect: opt.IsCorrect})
		}
		questions = append(questions, quiz.Question{
			ID:           s.newID(),
			QuizID:       quizID,
			Text:         spec.Text,
			Image:        spec.Image,
			Options:      options,
			Explanation:  spec.Explanation,
			TimerSeconds: timer,
		})
	}
	return questions
}

// topUp fetches in batches of at most opentdb.MaxAmount and appends each
// batch as it arrives, so a later failure keeps earlier batches.
func (s *Seeder) topUp(ctx context.Context, quizID string, req TopUp) (int, error) {
	stored := 0
	for remaining := req.Amount; remaining > 0; {
		if stored > 0 {
			if err := s.wait(ctx); err != nil {
				return stored, err
			}
		}

		batch := min(remaining, opentdb.MaxAmount)
		raw, err := s.fetcher.Fetch(ctx, opentdb.Query{
			Amount:     batch,
			Category:   req.Category,
			Difficulty: req.Difficulty,
		})
		if err != nil {
			return stored, fmt.Errorf("fetch questions: %w", err)
		}
		if len(raw) == 0 {
			return stored, nil
		}

		questions := quiz.BuildQuestions(quizID, raw, quiz.DefaultTimerSeconds, s.rand)
		if err := s.repo.AppendQuestions(ctx, quizID, questions); err != nil {
			return stored, fmt.Errorf("append questions: %w", err)
		}
		stored += len(questions)
		remaining -= len(raw)
		s.logger.Debug("appended generated questions", zap.String("quiz_id", quizID), zap.Int("count", len(questions)))
	}
	return stored, nil
}

func (s *Seeder) wait(ctx context.Context) error {
	if s.pause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
