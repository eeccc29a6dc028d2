package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"quiz-master/internal/quiz"
)

func (s *SQLiteStore) ListQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT quiz_id, title, description, category, difficulty
		 FROM quizzes
		 ORDER BY created_at_unix ASC, quiz_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := make([]quiz.Quiz, 0)
	for rows.Next() {
		var item quiz.Quiz
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Category, &item.Difficulty); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, item)
	}

	return quizzes, rows.Err()
}

func (s *SQLiteStore) GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error) {
	var item quiz.Quiz
	err := s.db.QueryRowContext(
		ctx,
		`SELECT quiz_id, title, description, category, difficulty FROM quizzes WHERE quiz_id = ?`,
		quizID,
	).Scan(&item.ID, &item.Title, &item.Description, &item.Category, &item.Difficulty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Quiz{}, quiz.ErrQuizNotFound
		}
		return quiz.Quiz{}, err
	}
	return item, nil
}

func (s *SQLiteStore) quizExists(ctx context.Context, q queryer, quizID string) (bool, error) {
	var found int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE quiz_id = ? LIMIT 1`, quizID).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) GetQuizQuestions(ctx context.Context, quizID string) ([]quiz.Question, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT question_id, question_text, question_image, options_json, explanation, timer_seconds
		 FROM questions
		 WHERE quiz_id = ?
		 ORDER BY position ASC`,
		quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]quiz.Question, 0)
	for rows.Next() {
		var (
			question    quiz.Question
			optionsJSON string
		)
		if err := rows.Scan(
			&question.ID,
			&question.Text,
			&question.Image,
			&optionsJSON,
			&question.Explanation,
			&question.TimerSeconds,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &question.Options); err != nil {
			return nil, err
		}
		question.QuizID = quizID
		questions = append(questions, question)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(questions) == 0 {
		exists, err := s.quizExists(ctx, s.db, quizID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, quiz.ErrQuizNotFound
		}
	}

	return questions, nil
}

// SaveQuiz replaces the quiz row and its whole question pool in one
// transaction.
func (s *SQLiteStore) SaveQuiz(ctx context.Context, item quiz.Quiz, questions []quiz.Question) error {
	if item.ID == "" {
		return errors.New("quiz id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id = ?`, item.ID); err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO quizzes (quiz_id, title, description, category, difficulty, created_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(quiz_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			difficulty = excluded.difficulty`,
		item.ID,
		item.Title,
		item.Description,
		item.Category,
		item.Difficulty,
		time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return err
	}

	if err := insertQuestions(ctx, tx, item.ID, 0, questions); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) AppendQuestions(ctx context.Context, quizID string, questions []quiz.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := s.quizExists(ctx, tx, quizID)
	if err != nil {
		return err
	}
	if !exists {
		return quiz.ErrQuizNotFound
	}

	var next int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM questions WHERE quiz_id = ?`,
		quizID,
	).Scan(&next); err != nil {
		return err
	}

	if err := insertQuestions(ctx, tx, quizID, next, questions); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quizzes`); err != nil {
		return err
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertQuestions upserts by (quiz_id, question_id) so re-adding a generated
// question keeps a single row.
func insertQuestions(ctx context.Context, tx *sql.Tx, quizID string, start int, questions []quiz.Question) error {
	for idx, question := range questions {
		if question.ID == "" {
			question.QuizID = quizID
			question.ID = quiz.MakeQuestionID(question)
		}

		optionsJSON, err := json.Marshal(question.Options)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO questions (question_id, quiz_id, position, question_text, question_image, options_json, explanation, timer_seconds)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(quiz_id, question_id) DO UPDATE SET
				question_text = excluded.question_text,
				question_image = excluded.question_image,
				options_json = excluded.options_json,
				explanation = excluded.explanation,
				timer_seconds = excluded.timer_seconds`,
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
			return err
		}
	}
	return nil
}
