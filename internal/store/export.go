package store

import (
	"fmt"
	"time"

	"github.com/algotutor/algotutor/internal/model"
)

// ExportAll builds a complete research export of every stored record.
func (s *Store) ExportAll() (model.ResearchExport, error) {
	export := model.ResearchExport{ExportedAt: time.Now()}

	rows, err := s.db.Query(
		`SELECT id, name, email, password_hash, preferred_language, skill_level, created_at FROM users ORDER BY id`,
	)
	if err != nil {
		return export, fmt.Errorf("export users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PreferredLanguage, &u.SkillLevel, &u.CreatedAt); err != nil {
			return export, err
		}
		u.PasswordHash = ""
		export.Users = append(export.Users, u)
	}
	if err := rows.Err(); err != nil {
		return export, err
	}

	for _, u := range export.Users {
		sessions, err := s.ListSessionsByUser(u.ID)
		if err != nil {
			return export, fmt.Errorf("export sessions for user %d: %w", u.ID, err)
		}
		export.Sessions = append(export.Sessions, sessions...)

		messages, err := s.ListMessagesByUser(u.ID)
		if err != nil {
			return export, fmt.Errorf("export messages for user %d: %w", u.ID, err)
		}
		export.Messages = append(export.Messages, messages...)

		quizzes, err := s.ListQuizzesByUser(u.ID)
		if err != nil {
			return export, fmt.Errorf("export quizzes for user %d: %w", u.ID, err)
		}
		export.Quizzes = append(export.Quizzes, quizzes...)

		trends, err := s.ListTrendsSince(u.ID, time.Time{})
		if err != nil {
			return export, fmt.Errorf("export trends for user %d: %w", u.ID, err)
		}
		export.Trends = append(export.Trends, trends...)

		progress, err := s.ListProgress(u.ID)
		if err != nil {
			return export, fmt.Errorf("export progress for user %d: %w", u.ID, err)
		}
		export.Progress = append(export.Progress, progress...)
	}

	return export, nil
}
