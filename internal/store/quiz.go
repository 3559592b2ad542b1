package store

import (
	"encoding/json"
	"time"

	"github.com/algotutor/algotutor/internal/model"
)

// CreateQuiz stores a generated quiz. Options are serialized to JSON at
// the persistence edge.
func (s *Store) CreateQuiz(q model.Quiz) (int64, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO quizzes (session_id, user_id, topic, difficulty, question, options, correct_answer, explanation, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.SessionID, q.UserID, q.Topic, q.Difficulty, q.Question, string(options),
		q.CorrectAnswer, q.Explanation, q.GeneratedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuiz returns a quiz by ID.
func (s *Store) GetQuiz(id int64) (model.Quiz, error) {
	var q model.Quiz
	var options string
	err := s.db.QueryRow(
		`SELECT id, session_id, user_id, topic, difficulty, question, options, correct_answer, explanation, user_answer, is_correct, generated_at, answered_at
		 FROM quizzes WHERE id = ?`, id,
	).Scan(&q.ID, &q.SessionID, &q.UserID, &q.Topic, &q.Difficulty, &q.Question, &options,
		&q.CorrectAnswer, &q.Explanation, &q.UserAnswer, &q.IsCorrect, &q.GeneratedAt, &q.AnsweredAt)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return q, err
	}
	return q, nil
}

// RecordQuizAnswer sets the answer fields of an unanswered quiz. The
// answered_at guard makes a second answer attempt fail with
// ErrQuizAnswered instead of overwriting the first.
func (s *Store) RecordQuizAnswer(id int64, selected int, correct bool, now time.Time) error {
	res, err := s.db.Exec(
		`UPDATE quizzes SET user_answer = ?, is_correct = ?, answered_at = ?
		 WHERE id = ? AND answered_at IS NULL`,
		selected, correct, now, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetQuiz(id); err != nil {
			return err
		}
		return ErrQuizAnswered
	}
	return nil
}

// ListQuizzesByUser returns all of a user's quizzes in generation order.
func (s *Store) ListQuizzesByUser(userID int64) ([]model.Quiz, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, user_id, topic, difficulty, question, options, correct_answer, explanation, user_answer, is_correct, generated_at, answered_at
		 FROM quizzes WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		var options string
		if err := rows.Scan(&q.ID, &q.SessionID, &q.UserID, &q.Topic, &q.Difficulty, &q.Question, &options,
			&q.CorrectAnswer, &q.Explanation, &q.UserAnswer, &q.IsCorrect, &q.GeneratedAt, &q.AnsweredAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}
