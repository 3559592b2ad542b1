package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/algotutor/algotutor/internal/model"
)

// GetOrOpenSession returns the user's active session, creating one if none
// exists. The partial unique index on sessions makes the create race-safe:
// if two requests insert concurrently, the loser re-reads the winner's row.
func (s *Store) GetOrOpenSession(userID int64, now time.Time) (model.Session, error) {
	sess, err := s.GetActiveSession(userID)
	if err != nil {
		return model.Session{}, err
	}
	if sess != nil {
		return *sess, nil
	}

	res, err := s.db.Exec(
		`INSERT INTO sessions (user_id, started_at, total_messages, average_sentiment)
		 VALUES (?, ?, 0, 0)`,
		userID, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			sess, rerr := s.GetActiveSession(userID)
			if rerr != nil {
				return model.Session{}, rerr
			}
			if sess != nil {
				return *sess, nil
			}
		}
		return model.Session{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{ID: id, UserID: userID, StartedAt: now}, nil
}

// GetActiveSession returns the user's open session, or nil if none.
func (s *Store) GetActiveSession(userID int64) (*model.Session, error) {
	var sess model.Session
	err := s.db.QueryRow(
		`SELECT id, user_id, started_at, ended_at, total_messages, average_sentiment
		 FROM sessions WHERE user_id = ? AND ended_at IS NULL`, userID,
	).Scan(&sess.ID, &sess.UserID, &sess.StartedAt, &sess.EndedAt, &sess.TotalMessages, &sess.AverageSentiment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetSession returns a session by ID.
func (s *Store) GetSession(id int64) (model.Session, error) {
	var sess model.Session
	err := s.db.QueryRow(
		`SELECT id, user_id, started_at, ended_at, total_messages, average_sentiment
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.StartedAt, &sess.EndedAt, &sess.TotalMessages, &sess.AverageSentiment)
	return sess, err
}

// ListSessionsByUser returns all of a user's sessions, newest first.
func (s *Store) ListSessionsByUser(userID int64) ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, started_at, ended_at, total_messages, average_sentiment
		 FROM sessions WHERE user_id = ? ORDER BY started_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.StartedAt, &sess.EndedAt, &sess.TotalMessages, &sess.AverageSentiment); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// CloseSession sets the session end time. Closing an already-closed
// session returns ErrSessionClosed.
func (s *Store) CloseSession(id int64, now time.Time) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, now, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetSession(id); err != nil {
			return err
		}
		return ErrSessionClosed
	}
	return nil
}

// RecordMessage appends a message to a session. For user messages it also
// updates the session's running mean sentiment and message count and
// appends an emotional trend sample, all in one transaction. Bot messages
// leave the session counters untouched.
func (s *Store) RecordMessage(msg model.Message, now time.Time) (model.Message, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Message{}, err
	}
	defer tx.Rollback()

	msg.CreatedAt = now
	res, err := tx.Exec(
		`INSERT INTO messages (session_id, user_id, sender, body, sentiment_score, emotion_category, topic, quiz_generated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.SessionID, msg.UserID, msg.Sender, msg.Body, msg.SentimentScore,
		msg.EmotionCategory, msg.Topic, msg.QuizGenerated, now,
	)
	if err != nil {
		return model.Message{}, err
	}
	msg.ID, err = res.LastInsertId()
	if err != nil {
		return model.Message{}, err
	}

	if msg.Sender == model.SenderUser {
		// mean' = (mean*n + p) / (n+1), incrementally.
		_, err = tx.Exec(
			`UPDATE sessions
			 SET average_sentiment = (average_sentiment * total_messages + ?) / (total_messages + 1),
			     total_messages = total_messages + 1
			 WHERE id = ?`,
			msg.SentimentScore, msg.SessionID,
		)
		if err != nil {
			return model.Message{}, err
		}

		var count int
		if err := tx.QueryRow(`SELECT total_messages FROM sessions WHERE id = ?`, msg.SessionID).Scan(&count); err != nil {
			return model.Message{}, err
		}

		_, err = tx.Exec(
			`INSERT INTO emotional_trends (user_id, session_id, sentiment_score, emotion_category, topic, message_count, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			msg.UserID, msg.SessionID, msg.SentimentScore, msg.EmotionCategory, msg.Topic, count, now,
		)
		if err != nil {
			return model.Message{}, err
		}
	}

	return msg, tx.Commit()
}

// ListMessagesForSession returns all messages of a session in insertion
// order.
func (s *Store) ListMessagesForSession(sessionID int64) ([]model.Message, error) {
	return s.queryMessages(
		`SELECT id, session_id, user_id, sender, body, sentiment_score, emotion_category, topic, quiz_generated, created_at
		 FROM messages WHERE session_id = ? ORDER BY id`, sessionID,
	)
}

// RecentUserMessages returns the most recent n user messages of a session,
// newest first.
func (s *Store) RecentUserMessages(sessionID int64, n int) ([]model.Message, error) {
	return s.queryMessages(
		`SELECT id, session_id, user_id, sender, body, sentiment_score, emotion_category, topic, quiz_generated, created_at
		 FROM messages WHERE session_id = ? AND sender = 'user' ORDER BY id DESC LIMIT ?`, sessionID, n,
	)
}

// MarkQuizGenerated flags a message as having a quiz attached.
func (s *Store) MarkQuizGenerated(messageID int64) error {
	_, err := s.db.Exec(`UPDATE messages SET quiz_generated = 1 WHERE id = ?`, messageID)
	return err
}

// ListMessagesByUser returns all of a user's messages in insertion order.
func (s *Store) ListMessagesByUser(userID int64) ([]model.Message, error) {
	return s.queryMessages(
		`SELECT id, session_id, user_id, sender, body, sentiment_score, emotion_category, topic, quiz_generated, created_at
		 FROM messages WHERE user_id = ? ORDER BY id`, userID,
	)
}

func (s *Store) queryMessages(query string, args ...any) ([]model.Message, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.Sender, &m.Body, &m.SentimentScore, &m.EmotionCategory, &m.Topic, &m.QuizGenerated, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListTrendsSince returns a user's trend samples at or after the given
// time, in chronological order.
func (s *Store) ListTrendsSince(userID int64, since time.Time) ([]model.TrendSample, error) {
	return s.queryTrends(
		`SELECT id, user_id, session_id, sentiment_score, emotion_category, topic, message_count, created_at
		 FROM emotional_trends WHERE user_id = ? AND created_at >= ? ORDER BY created_at, id`, userID, since,
	)
}

// RecentTrends returns the user's most recent n trend samples, newest
// first.
func (s *Store) RecentTrends(userID int64, n int) ([]model.TrendSample, error) {
	return s.queryTrends(
		`SELECT id, user_id, session_id, sentiment_score, emotion_category, topic, message_count, created_at
		 FROM emotional_trends WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, n,
	)
}

func (s *Store) queryTrends(query string, args ...any) ([]model.TrendSample, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var trends []model.TrendSample
	for rows.Next() {
		var t model.TrendSample
		if err := rows.Scan(&t.ID, &t.UserID, &t.SessionID, &t.SentimentScore, &t.EmotionCategory, &t.Topic, &t.MessageCount, &t.CreatedAt); err != nil {
			return nil, err
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

// CreatePause records a pause on a session.
func (s *Store) CreatePause(sessionID int64, reason string, now time.Time) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO session_pauses (session_id, paused_at, reason) VALUES (?, ?, ?)`,
		sessionID, now, reason,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ResumePause sets the resume time on a pause record. The pause must
// belong to one of the user's sessions; a missing or foreign pause
// returns sql.ErrNoRows, and a pause that was already resumed returns
// ErrPauseResumed.
func (s *Store) ResumePause(pauseID, userID int64, now time.Time) error {
	res, err := s.db.Exec(
		`UPDATE session_pauses SET resumed_at = ?
		 WHERE id = ? AND resumed_at IS NULL
		   AND session_id IN (SELECT id FROM sessions WHERE user_id = ?)`,
		now, pauseID, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRow(
			`SELECT 1 FROM session_pauses p
			 JOIN sessions s ON s.id = p.session_id
			 WHERE p.id = ? AND s.user_id = ?`, pauseID, userID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		return ErrPauseResumed
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
