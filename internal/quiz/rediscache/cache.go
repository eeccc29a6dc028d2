// Package rediscache shares the quiz catalog cache between service instances.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-master/internal/quiz"
)

const (
	keyPrefix  = "quiz:"
	catalogKey = keyPrefix + "catalog"
)

var _ quiz.Cache = (*Cache)(nil)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, ttl), nil
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

func questionsKey(quizID string) string {
	return fmt.Sprintf("%s%s:questions", keyPrefix, quizID)
}

func (c *Cache) GetCatalog(ctx context.Context) ([]quiz.Quiz, bool, error) {
	var quizzes []quiz.Quiz
	ok, err := c.get(ctx, catalogKey, &quizzes)
	return quizzes, ok, err
}

func (c *Cache) SetCatalog(ctx context.Context, quizzes []quiz.Quiz) error {
	return c.set(ctx, catalogKey, quizzes)
}

func (c *Cache) GetQuestions(ctx context.Context, quizID string) ([]quiz.Question, bool, error) {
	var questions []quiz.Question
	ok, err := c.get(ctx, questionsKey(quizID), &questions)
	return questions, ok, err
}

func (c *Cache) SetQuestions(ctx context.Context, quizID string, questions []quiz.Question) error {
	return c.set(ctx, questionsKey(quizID), questions)
}

// Invalidate deletes every catalog key.
func (c *Cache) Invalidate(ctx context.Context) error {
	var (
		cursor uint64
		keys   []string
	)
	for {
		matched, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan cache keys: %w", err)
		}
		keys = append(keys, matched...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) > 0 {
		return c.rdb.Del(ctx, keys...).Err()
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}
