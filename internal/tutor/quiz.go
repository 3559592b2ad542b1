package tutor

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/algotutor/algotutor/internal/i18n"
	"github.com/algotutor/algotutor/internal/model"
)

// ErrQuizParse reports that the generator's output was not a usable quiz.
var ErrQuizParse = errors.New("quiz payload invalid")

// frustrationFloor suppresses quizzes when the user is clearly upset.
// Mild negativity is tolerated.
const frustrationFloor = -0.2

// quizInterval triggers a check-in every this many user messages.
const quizInterval = 3

// ShouldTriggerQuiz decides whether a quiz is offered after a chat turn.
// All conditions must hold: the user-message count is a positive
// multiple of the interval, a specific topic is set, and polarity is
// above the frustration floor.
func ShouldTriggerQuiz(messageCount int, topic string, polarity float64) bool {
	if messageCount <= 0 || messageCount%quizInterval != 0 {
		return false
	}
	if topic == "" || topic == model.DefaultTopic {
		return false
	}
	return polarity > frustrationFloor
}

// QuizPayload is the shape the generator is asked to produce.
type QuizPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// ParseQuizPayload parses and validates raw generator output. Some
// models wrap JSON in markdown fences; those are stripped first.
func ParseQuizPayload(raw string) (QuizPayload, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var p QuizPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return QuizPayload{}, fmt.Errorf("%w: %v", ErrQuizParse, err)
	}
	if strings.TrimSpace(p.Question) == "" {
		return QuizPayload{}, fmt.Errorf("%w: empty question", ErrQuizParse)
	}
	if len(p.Options) < 2 {
		return QuizPayload{}, fmt.Errorf("%w: need at least two options, got %d", ErrQuizParse, len(p.Options))
	}
	if p.CorrectAnswer < 0 || p.CorrectAnswer >= len(p.Options) {
		return QuizPayload{}, fmt.Errorf("%w: correct_answer %d out of range", ErrQuizParse, p.CorrectAnswer)
	}
	return p, nil
}

// AnswerResult is the outcome of answering a quiz.
type AnswerResult struct {
	Correct       bool   `json:"is_correct"`
	CorrectAnswer int    `json:"correct_answer"`
	Feedback      string `json:"feedback"`
}

// AnswerQuiz records the user's selected option and returns localized
// feedback. A quiz can be answered exactly once; repeats return
// store.ErrQuizAnswered. An out-of-range selection is a validation
// error surfaced to the caller.
func (e *Engine) AnswerQuiz(quizID, userID int64, selected int, loc *goi18n.Localizer) (AnswerResult, error) {
	quiz, err := e.store.GetQuiz(quizID)
	if err != nil {
		return AnswerResult{}, err
	}
	if quiz.UserID != userID {
		// Foreign quizzes read as absent.
		return AnswerResult{}, sql.ErrNoRows
	}
	if selected < 0 || selected >= len(quiz.Options) {
		return AnswerResult{}, fmt.Errorf("answer %d out of range for %d options", selected, len(quiz.Options))
	}

	correct := selected == quiz.CorrectAnswer
	if err := e.store.RecordQuizAnswer(quizID, selected, correct, e.now()); err != nil {
		return AnswerResult{}, err
	}

	var feedback string
	if correct {
		feedback = i18n.T(loc, "quiz.correct", map[string]any{
			"Correct":     quiz.Options[quiz.CorrectAnswer],
			"Explanation": quiz.Explanation,
		})
	} else {
		feedback = i18n.T(loc, "quiz.incorrect", map[string]any{
			"Correct":     quiz.Options[quiz.CorrectAnswer],
			"Chosen":      quiz.Options[selected],
			"Explanation": quiz.Explanation,
		})
	}

	return AnswerResult{
		Correct:       correct,
		CorrectAnswer: quiz.CorrectAnswer,
		Feedback:      strings.TrimSpace(feedback),
	}, nil
}
