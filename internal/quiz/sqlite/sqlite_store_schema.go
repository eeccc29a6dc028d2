package sqlite

import (
	"context"
)

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	// No FK constraints: SaveQuiz and Reset delete child rows themselves inside
	// their transactions.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			quiz_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL DEFAULT '',
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			question_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			question_text TEXT NOT NULL,
			question_image TEXT NOT NULL DEFAULT '',
			options_json TEXT NOT NULL,
			explanation TEXT NOT NULL DEFAULT '',
			timer_seconds INTEGER NOT NULL,
			PRIMARY KEY (quiz_id, question_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quizzes_created_at ON quizzes(created_at_unix ASC);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_quiz_position ON questions(quiz_id, position);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
