package tutor

import (
	"fmt"

	"github.com/algotutor/algotutor/internal/model"
)

// maxReviewIntervalDays caps the exponential backoff of review intervals.
const maxReviewIntervalDays = 365

// MarkReviewed records one review of a topic and reschedules it. The
// first review of a topic creates its entry. A successful review pushes
// the next one out exponentially (2^count days, capped at a year); a
// failed review brings it back tomorrow. The success rate is the running
// fraction of successful reviews.
func (e *Engine) MarkReviewed(userID, topicID int64, success bool) (model.RepetitionEntry, error) {
	now := e.now()

	entry, err := e.store.GetRepetitionEntry(userID, topicID)
	if err != nil {
		return model.RepetitionEntry{}, fmt.Errorf("loading repetition entry: %w", err)
	}
	if entry == nil {
		entry = &model.RepetitionEntry{UserID: userID, TopicID: topicID, DifficultyLevel: 1}
	}

	entry.ReviewCount++
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	n := float64(entry.ReviewCount)
	entry.SuccessRate = (entry.SuccessRate*(n-1) + outcome) / n

	if success {
		// 2^9 already exceeds the cap; shifting further would
		// eventually overflow.
		days := maxReviewIntervalDays
		if entry.ReviewCount < 9 {
			days = 1 << entry.ReviewCount
		}
		entry.NextReview = now.AddDate(0, 0, days)
	} else {
		entry.NextReview = now.AddDate(0, 0, 1)
	}

	if err := e.store.UpsertRepetitionEntry(*entry, now); err != nil {
		return model.RepetitionEntry{}, fmt.Errorf("saving repetition entry: %w", err)
	}
	entry.UpdatedAt = now
	return *entry, nil
}

// DueTopics lists every topic whose next review is at or before now.
func (e *Engine) DueTopics(userID int64) ([]model.DueTopic, error) {
	return e.store.DueTopics(userID, e.now())
}
