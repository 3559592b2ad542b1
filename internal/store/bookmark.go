package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/algotutor/algotutor/internal/model"
)

// CreateBookmark stores a bookmark. Tags are serialized to JSON at the
// persistence edge.
func (s *Store) CreateBookmark(b model.Bookmark) (int64, error) {
	tags, err := json.Marshal(b.Tags)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO bookmarks (user_id, title, description, tags, question_id, message_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Title, b.Description, string(tags), b.QuestionID, b.MessageID, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListBookmarks returns a user's bookmarks, newest first.
func (s *Store) ListBookmarks(userID int64) ([]model.Bookmark, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, title, description, tags, question_id, message_id, created_at
		 FROM bookmarks WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bookmarks []model.Bookmark
	for rows.Next() {
		var b model.Bookmark
		var tags string
		if err := rows.Scan(&b.ID, &b.UserID, &b.Title, &b.Description, &tags, &b.QuestionID, &b.MessageID, &b.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// DeleteBookmark removes a user's bookmark. Returns sql.ErrNoRows when
// the bookmark does not exist or belongs to someone else.
func (s *Store) DeleteBookmark(id, userID int64) error {
	res, err := s.db.Exec(`DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
