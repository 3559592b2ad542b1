package store

import (
	"encoding/json"
	"time"

	"github.com/algotutor/algotutor/internal/model"
)

// InsertQuestion stores a question. Examples are serialized to JSON at the
// persistence edge.
func (s *Store) InsertQuestion(q model.Question) (int64, error) {
	examples, err := json.Marshal(q.Examples)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO questions (title, description, difficulty, language, topic, solution, examples)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.Title, q.Description, q.Difficulty, q.Language, q.Topic, q.Solution, string(examples),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	var q model.Question
	var examples string
	err := s.db.QueryRow(
		`SELECT id, title, description, difficulty, language, topic, solution, examples
		 FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.Title, &q.Description, &q.Difficulty, &q.Language, &q.Topic, &q.Solution, &examples)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(examples), &q.Examples); err != nil {
		return q, err
	}
	return q, nil
}

// ListQuestionsFiltered returns questions matching the given filters.
// Empty strings mean no filtering on that field; limit 0 means no limit.
func (s *Store) ListQuestionsFiltered(difficulty, language string, limit int) ([]model.Question, error) {
	query := `SELECT id, title, description, difficulty, language, topic, solution, examples FROM questions WHERE 1=1`
	var args []any
	if difficulty != "" {
		query += ` AND difficulty = ?`
		args = append(args, difficulty)
	}
	if language != "" {
		query += ` AND language = ?`
		args = append(args, language)
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var examples string
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.Difficulty, &q.Language, &q.Topic, &q.Solution, &examples); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(examples), &q.Examples); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// UpsertProgress records a user's attempt state for a question.
func (s *Store) UpsertProgress(p model.QuestionProgress) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO question_progress (user_id, question_id, attempted, solved, last_answer, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, question_id) DO UPDATE SET
		     attempted = ?, solved = ?, last_answer = ?, updated_at = ?`,
		p.UserID, p.QuestionID, p.Attempted, p.Solved, p.LastAnswer, now,
		p.Attempted, p.Solved, p.LastAnswer, now,
	)
	return err
}

// ListProgress returns all progress rows for a user.
func (s *Store) ListProgress(userID int64) ([]model.QuestionProgress, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, question_id, attempted, solved, last_answer, updated_at
		 FROM question_progress WHERE user_id = ? ORDER BY question_id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var progress []model.QuestionProgress
	for rows.Next() {
		var p model.QuestionProgress
		if err := rows.Scan(&p.ID, &p.UserID, &p.QuestionID, &p.Attempted, &p.Solved, &p.LastAnswer, &p.UpdatedAt); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}
