package store

import (
	"database/sql"
	"time"

	"github.com/algotutor/algotutor/internal/model"
)

// GetRepetitionEntry returns the (user, topic) entry, or nil if none
// exists yet.
func (s *Store) GetRepetitionEntry(userID, topicID int64) (*model.RepetitionEntry, error) {
	var e model.RepetitionEntry
	err := s.db.QueryRow(
		`SELECT id, user_id, topic_id, difficulty_level, next_review, review_count, success_rate, updated_at
		 FROM spaced_repetition WHERE user_id = ? AND topic_id = ?`, userID, topicID,
	).Scan(&e.ID, &e.UserID, &e.TopicID, &e.DifficultyLevel, &e.NextReview, &e.ReviewCount, &e.SuccessRate, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertRepetitionEntry writes the full entry state, keyed on
// (user, topic).
func (s *Store) UpsertRepetitionEntry(e model.RepetitionEntry, now time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO spaced_repetition (user_id, topic_id, difficulty_level, next_review, review_count, success_rate, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, topic_id) DO UPDATE SET
		     difficulty_level = ?, next_review = ?, review_count = ?, success_rate = ?, updated_at = ?`,
		e.UserID, e.TopicID, e.DifficultyLevel, e.NextReview, e.ReviewCount, e.SuccessRate, now,
		e.DifficultyLevel, e.NextReview, e.ReviewCount, e.SuccessRate, now,
	)
	return err
}

// DueTopics returns the user's entries due at or before now, joined with
// question titles for display.
func (s *Store) DueTopics(userID int64, now time.Time) ([]model.DueTopic, error) {
	rows, err := s.db.Query(
		`SELECT sr.topic_id, q.title, sr.next_review, sr.review_count, sr.success_rate, sr.difficulty_level
		 FROM spaced_repetition sr
		 JOIN questions q ON q.id = sr.topic_id
		 WHERE sr.user_id = ? AND sr.next_review <= ?`, userID, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var due []model.DueTopic
	for rows.Next() {
		var d model.DueTopic
		if err := rows.Scan(&d.TopicID, &d.TopicTitle, &d.NextReview, &d.ReviewCount, &d.SuccessRate, &d.DifficultyLevel); err != nil {
			return nil, err
		}
		due = append(due, d)
	}
	return due, rows.Err()
}
