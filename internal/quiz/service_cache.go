package quiz

import (
	"context"
	"sync"
	"time"
)

// Cache holds the catalog and per-quiz question pools between requests.
// Implementations report a miss with ok=false; errors are treated as misses
// by the service.
type Cache interface {
	GetCatalog(ctx context.Context) ([]Quiz, bool, error)
	SetCatalog(ctx context.Context, quizzes []Quiz) error
	GetQuestions(ctx context.Context, quizID string) ([]Question, bool, error)
	SetQuestions(ctx context.Context, quizID string, questions []Question) error
	Invalidate(ctx context.Context) error
}

type nopCache struct{}

func (nopCache) GetCatalog(context.Context) ([]Quiz, bool, error)                { return nil, false, nil }
func (nopCache) SetCatalog(context.Context, []Quiz) error                        { return nil }
func (nopCache) GetQuestions(context.Context, string) ([]Question, bool, error) { return nil, false, nil }
func (nopCache) SetQuestions(context.Context, string, []Question) error         { return nil }
func (nopCache) Invalidate(context.Context) error                               { return nil }

type catalogEntry struct {
	quizzes   []Quiz
	expiresAt time.Time
}

type questionsEntry struct {
	questions []Question
	expiresAt time.Time
}

// MemoryCache is the in-process Cache used when no Redis URL is configured.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	catalog   *catalogEntry
	questions map[string]questionsEntry
}

// NewMemoryCache returns a cache whose entries expire after ttl. A
// non-positive ttl keeps entries until Invalidate.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:       ttl,
		now:       time.Now,
		questions: make(map[string]questionsEntry),
	}
}

func (c *MemoryCache) GetCatalog(_ context.Context) ([]Quiz, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.catalog == nil || c.expired(c.catalog.expiresAt) {
		return nil, false, nil
	}
	out := make([]Quiz, len(c.catalog.quizzes))
	copy(out, c.catalog.quizzes)
	return out, true, nil
}

func (c *MemoryCache) SetCatalog(_ context.Context, quizzes []Quiz) error {
	stored := make([]Quiz, len(quizzes))
	copy(stored, quizzes)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = &catalogEntry{quizzes: stored, expiresAt: c.deadline()}
	return nil
}

func (c *MemoryCache) GetQuestions(_ context.Context, quizID string) ([]Question, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.questions[quizID]
	if !ok || c.expired(entry.expiresAt) {
		return nil, false, nil
	}
	out := make([]Question, len(entry.questions))
	copy(out, entry.questions)
	return out, true, nil
}

func (c *MemoryCache) SetQuestions(_ context.Context, quizID string, questions []Question) error {
	stored := make([]Question, len(questions))
	copy(stored, questions)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions[quizID] = questionsEntry{questions: stored, expiresAt: c.deadline()}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = nil
	c.questions = make(map[string]questionsEntry)
	return nil
}

func (c *MemoryCache) deadline() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

func (c *MemoryCache) expired(expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !c.now().Before(expiresAt)
}
