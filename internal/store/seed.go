package store

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/algotutor/algotutor/internal/model"
)

//go:embed seed/questions.json
var seedFS embed.FS

// seedLanguages mirrors the languages the question bank is offered in.
var seedLanguages = []string{"python", "cpp", "javascript"}

// SeedQuestions loads the embedded question bank, one copy per
// language. It is a no-op when the bank is already populated. Returns
// the number of questions inserted.
func (s *Store) SeedQuestions() (int, error) {
	count, err := s.QuestionCount()
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	raw, err := seedFS.ReadFile("seed/questions.json")
	if err != nil {
		return 0, fmt.Errorf("reading embedded question bank: %w", err)
	}
	var bank []model.Question
	if err := json.Unmarshal(raw, &bank); err != nil {
		return 0, fmt.Errorf("parsing question bank: %w", err)
	}

	inserted := 0
	for _, base := range bank {
		for _, lang := range seedLanguages {
			q := base
			q.ID = 0
			q.Language = lang
			if _, err := s.InsertQuestion(q); err != nil {
				return inserted, fmt.Errorf("seeding %q (%s): %w", q.Title, lang, err)
			}
			inserted++
		}
	}
	slog.Info("question bank seeded", "questions", inserted)
	return inserted, nil
}
