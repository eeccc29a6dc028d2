package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"
)

type fakeRepo struct {
	quizzes         map[string]Quiz
	questionsByQuiz map[string][]Question
	order           []string

	listErr error

	listCalls         int
	getQuizCalls      int
	getQuestionsCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		quizzes:         make(map[string]Quiz),
		questionsByQuiz: make(map[string][]Question),
	}
}

func (f *fakeRepo) add(item Quiz, questions []Question) {
	if _, ok := f.quizzes[item.ID]; !ok {
		f.order = append(f.order, item.ID)
	}
	f.quizzes[item.ID] = item
	f.questionsByQuiz[item.ID] = questions
}

func (f *fakeRepo) ListQuizzes(_ context.Context) ([]Quiz, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Quiz, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.quizzes[id])
	}
	return out, nil
}

func (f *fakeRepo) GetQuiz(_ context.Context, quizID string) (Quiz, error) {
	f.getQuizCalls++
	item, ok := f.quizzes[quizID]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return item, nil
}

func (f *fakeRepo) GetQuizQuestions(_ context.Context, quizID string) ([]Question, error) {
	f.getQuestionsCalls++
	if _, ok := f.quizzes[quizID]; !ok {
		return nil, ErrQuizNotFound
	}
	return f.questionsByQuiz[quizID], nil
}

func (f *fakeRepo) SaveQuiz(_ context.Context, item Quiz, questions []Question) error {
	f.add(item, questions)
	return nil
}

func (f *fakeRepo) AppendQuestions(_ context.Context, quizID string, questions []Question) error {
	if _, ok := f.quizzes[quizID]; !ok {
		return ErrQuizNotFound
	}
	f.questionsByQuiz[quizID] = append(f.questionsByQuiz[quizID], questions...)
	return nil
}

func (f *fakeRepo) Reset(_ context.Context) error {
	f.quizzes = make(map[string]Quiz)
	f.questionsByQuiz = make(map[string][]Question)
	f.order = nil
	return nil
}

func makePool(quizID string, n int) []Question {
	pool := make([]Question, n)
	for i := range pool {
		pool[i] = Question{
			ID:           fmt.Sprintf("%s-q%02d", quizID, i),
			QuizID:       quizID,
			Text:         fmt.Sprintf("Question %d", i),
			Options:      []Option{{Text: "yes", IsCorrect: true}, {Text: "no"}},
			TimerSeconds: 30,
		}
	}
	return pool
}

func TestSelectQuestionsAnnotatesRoundsAndLimits(t *testing.T) {
	repo := newFakeRepo()
	repo.add(Quiz{ID: "science", Title: "Science"}, makePool("science", 40))
	service := NewService(repo, nil, nil, WithRand(rand.New(rand.NewSource(7))))

	questions, err := service.SelectQuestions(context.Background(), "science")
	if err != nil {
		t.Fatalf("SelectQuestions returned error: %v", err)
	}
	if len(questions) != 15 {
		t.Fatalf("expected 15 questions, got %d", len(questions))
	}

	seen := make(map[string]bool, len(questions))
	for idx, q := range questions {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s in selection", q.ID)
		}
		seen[q.ID] = true

		wantRound := idx/5 + 1
		wantInRound := idx%5 + 1
		if q.Round != wantRound || q.QuestionInRound != wantInRound {
			t.Fatalf("question %d annotated round=%d/%d, want %d/%d", idx, q.Round, q.QuestionInRound, wantRound, wantInRound)
		}
	}
}

func TestSelectQuestionsSmallPoolReturnsEverything(t *testing.T) {
	repo := newFakeRepo()
	repo.add(Quiz{ID: "tiny"}, makePool("tiny", 4))
	service := NewService(repo, nil, nil)

	questions, err := service.SelectQuestions(context.Background(), "tiny")
	if err != nil {
		t.Fatalf("SelectQuestions returned error: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(questions))
	}
	if repo.questionsByQuiz["tiny"][0].Round != 0 {
		t.Fatalf("selection must not mutate the stored pool")
	}
}

func TestSelectQuestionsHonoursLayout(t *testing.T) {
	repo := newFakeRepo()
	repo.add(Quiz{ID: "geo"}, makePool("geo", 20))
	service := NewService(repo, nil, nil, WithLayout(2, 3))

	questions, err := service.SelectQuestions(context.Background(), "geo")
	if err != nil {
		t.Fatalf("SelectQuestions returned error: %v", err)
	}
	if len(questions) != 6 {
		t.Fatalf("expected 6 questions, got %d", len(questions))
	}
	if last := questions[5]; last.Round != 2 || last.QuestionInRound != 3 {
		t.Fatalf("unexpected annotation on last question: %+v", last)
	}
}

func TestSelectQuestionsIsUniform(t *testing.T) {
	repo := newFakeRepo()
	repo.add(Quiz{ID: "dist"}, makePool("dist", 4))
	service := NewService(repo, nil, nil, WithLayout(1, 1), WithRand(rand.New(rand.NewSource(99))))

	const draws = 8000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		questions, err := service.SelectQuestions(context.Background(), "dist")
		if err != nil {
			t.Fatalf("SelectQuestions returned error: %v", err)
		}
		counts[questions[0].ID]++
	}

	for id, n := range counts {
		if n < draws/4-400 || n > draws/4+400 {
			t.Fatalf("question %s drawn first %d times out of %d, distribution looks biased: %v", id, n, draws, counts)
		}
	}
	if len(counts) != 4 {
		t.Fatalf("expected every question to be drawn first at least once, got %v", counts)
	}
}

func TestSelectQuestionsErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.add(Quiz{ID: "empty"}, nil)
	service := NewService(repo, nil, nil)

	tests := []struct {
		name   string
		quizID string
		want   error
	}{
		{name: "blank id", quizID: "  ", want: ErrInvalidQuizID},
		{name: "malformed id", quizID: "abc/../def", want: ErrInvalidQuizID},
		{name: "unknown quiz", quizID: "missing", want: ErrQuizNotFound},
		{name: "empty pool", quizID: "empty", want: ErrNoQuestions},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.SelectQuestions(context.Background(), tc.quizID)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSelectQuestionsCachesPool(t *testing.T) {
	repo := newFakeRepo()
	repo.add(Quiz{ID: "cached"}, makePool("cached", 20))
	service := NewService(repo, NewMemoryCache(time.Minute), nil)

	for i := 0; i < 3; i++ {
		if _, err := service.SelectQuestions(context.Background(), "cached"); err != nil {
			t.Fatalf("SelectQuestions returned error: %v", err)
		}
	}
	if repo.getQuestionsCalls != 1 {
		t.Fatalf("expected one repository read, got %d", repo.getQuestionsCalls)
	}

	if err := service.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	if _, err := service.SelectQuestions(context.Background(), "cached"); err != nil {
		t.Fatalf("SelectQuestions returned error: %v", err)
	}
	if repo.getQuestionsCalls != 2 {
		t.Fatalf("expected a repository read after invalidation, got %d", repo.getQuestionsCalls)
	}
}

func TestListQuizzesCachesCatalog(t *testing.T) {
	repo := newFakeRepo()
	repo.add(Quiz{ID: "a", Title: "A"}, nil)
	repo.add(Quiz{ID: "b", Title: "B"}, nil)
	service := NewService(repo, NewMemoryCache(time.Minute), nil)

	first, err := service.ListQuizzes(context.Background())
	if err != nil {
		t.Fatalf("ListQuizzes returned error: %v", err)
	}
	if len(first) != 2 || first[0].ID != "a" || first[1].ID != "b" {
		t.Fatalf("unexpected catalog: %+v", first)
	}

	if _, err := service.ListQuizzes(context.Background()); err != nil {
		t.Fatalf("second ListQuizzes returned error: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected second list to be cache-only, got %d repository calls", repo.listCalls)
	}

	item, err := service.GetQuiz(context.Background(), "b")
	if err != nil {
		t.Fatalf("GetQuiz returned error: %v", err)
	}
	if item.Title != "B" || repo.getQuizCalls != 0 {
		t.Fatalf("expected GetQuiz to be served from the cached catalog, got %+v calls=%d", item, repo.getQuizCalls)
	}
}

func TestListQuizzesWrapsRepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errors.New("db down")
	service := NewService(repo, nil, nil)

	_, err := service.ListQuizzes(context.Background())
	if err == nil || !errors.Is(err, repo.listErr) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestGetQuizNotFound(t *testing.T) {
	service := NewService(newFakeRepo(), nil, nil)

	if _, err := service.GetQuiz(context.Background(), "nope"); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := service.GetQuiz(context.Background(), ""); !errors.Is(err, ErrInvalidQuizID) {
		t.Fatalf("expected ErrInvalidQuizID, got %v", err)
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	cache := NewMemoryCache(time.Minute)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	if err := cache.SetQuestions(ctx, "q", makePool("q", 2)); err != nil {
		t.Fatalf("SetQuestions returned error: %v", err)
	}
	if _, ok, _ := cache.GetQuestions(ctx, "q"); !ok {
		t.Fatalf("expected cache hit before expiry")
	}

	now = now.Add(time.Minute)
	if _, ok, _ := cache.GetQuestions(ctx, "q"); ok {
		t.Fatalf("expected cache miss after expiry")
	}
}
