package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quiz-master/internal/quiz"
)

var _ quiz.Repository = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	tx   *Transactor
}

// NewStore wraps pool and creates the schema when missing.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	store := &Store{pool: pool, tx: NewTransactor(pool)}
	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			quiz_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			question_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL REFERENCES quizzes(quiz_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			question_text TEXT NOT NULL,
			question_image TEXT NOT NULL DEFAULT '',
			options JSONB NOT NULL,
			explanation TEXT NOT NULL DEFAULT '',
			timer_seconds INTEGER NOT NULL,
			PRIMARY KEY (quiz_id, question_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_quiz_position ON questions(quiz_id, position)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) ListQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	rows, err := s.pool.Query(
		ctx,
		`SELECT quiz_id, title, description, category, difficulty
		 FROM quizzes
		 ORDER BY created_at ASC, quiz_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]quiz.Quiz, 0)
	for rows.Next() {
		var item quiz.Quiz
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Category, &item.Difficulty); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, item)
	}

	return quizzes, rows.Err()
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error) {
	var item quiz.Quiz
	err := s.pool.QueryRow(
		ctx,
		`SELECT quiz_id, title, description, category, difficulty FROM quizzes WHERE quiz_id = $1`,
		quizID,
	).Scan(&item.ID, &item.Title, &item.Description, &item.Category, &item.Difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return quiz.Quiz{}, quiz.ErrQuizNotFound
		}
		return quiz.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return item, nil
}

func (s *Store) GetQuizQuestions(ctx context.Context, quizID string) ([]quiz.Question, error) {
	rows, err := s.pool.Query(
		ctx,
		`SELECT question_id, question_text, question_image, options, explanation, timer_seconds
		 FROM questions
		 WHERE quiz_id = $1
		 ORDER BY position ASC`,
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	questions := make([]quiz.Question, 0)
	for rows.Next() {
		var (
			question    quiz.Question
			optionsJSON []byte
		)
		if err := rows.Scan(
			&question.ID,
			&question.Text,
			&question.Image,
			&optionsJSON,
			&question.Explanation,
			&question.TimerSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(optionsJSON, &question.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		question.QuizID = quizID
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(questions) == 0 {
		exists, err := quizExists(ctx, s.pool, quizID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, quiz.ErrQuizNotFound
		}
	}
	return questions, nil
}

func (s *Store) SaveQuiz(ctx context.Context, item quiz.Quiz, questions []quiz.Question) error {
	if item.ID == "" {
		return errors.New("quiz id is required")
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, item.ID); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}

		_, err := tx.Exec(
			ctx,
			`INSERT INTO quizzes (quiz_id, title, description, category, difficulty)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (quiz_id) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				category = EXCLUDED.category,
				difficulty = EXCLUDED.difficulty`,
			item.ID, item.Title, item.Description, item.Category, item.Difficulty,
		)
		if err != nil {
			return fmt.Errorf("upsert quiz: %w", err)
		}

		return insertQuestions(ctx, tx, item.ID, 0, questions)
	})
}

func (s *Store) AppendQuestions(ctx context.Context, quizID string, questions []quiz.Question) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		exists, err := quizExists(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if !exists {
			return quiz.ErrQuizNotFound
		}

		var next int
		if err := tx.QueryRow(
			ctx,
			`SELECT COALESCE(MAX(position) + 1, 0) FROM questions WHERE quiz_id = $1`,
			quizID,
		).Scan(&next); err != nil {
			return fmt.Errorf("next position: %w", err)
		}

		return insertQuestions(ctx, tx, quizID, next, questions)
	})
}

func (s *Store) Reset(ctx context.Context) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE questions, quizzes`); err != nil {
			return fmt.Errorf("truncate catalog: %w", err)
		}
		return nil
	})
}

func quizExists(ctx context.Context, db DBTX, quizID string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quizzes WHERE quiz_id = $1)`, quizID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("quiz exists: %w", err)
	}
	return exists, nil
}

func insertQuestions(ctx context.Context, db DBTX, quizID string, start int, questions []quiz.Question) error {
	for idx, question := range questions {
		if question.ID == "" {
			question.QuizID = quizID
			question.ID = quiz.MakeQuestionID(question)
		}

		optionsJSON, err := json.Marshal(question.Options)
		if err != nil {
			return err
		}

		_, err = db.Exec(
			ctx,
			`INSERT INTO questions (question_id, quiz_id, position, question_text, question_image, options, explanation, timer_seconds)
			 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
			 ON CONFLICT (quiz_id, question_id) DO UPDATE SET
				question_text = EXCLUDED.question_text,
				question_image = EXCLUDED.question_image,
				options = EXCLUDED.options,
				explanation = EXCLUDED.explanation,
				timer_seconds = EXCLUDED.timer_seconds`,
			question.ID,
			quizID,
			start+idx,
			question.Text,
			question.Image,
			string(optionsJSON),
			question.Explanation,
			question.TimerSeconds,
		)
		if err != nil {
			return fmt.Errorf("insert question %s: %w", question.ID, err)
		}
	}
	return nil
}
