// Package tutor implements the adaptive tutoring engine: it runs a chat
// turn end to end, decides when to attach quizzes, and maintains the
// spaced-repetition schedule.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/algotutor/algotutor/internal/llm"
	"github.com/algotutor/algotutor/internal/llm/prompts"
	"github.com/algotutor/algotutor/internal/model"
	"github.com/algotutor/algotutor/internal/sentiment"
	"github.com/algotutor/algotutor/internal/store"
)

// ErrExternal wraps failures of the generation backend. Handlers map it
// to a 502.
var ErrExternal = errors.New("generation service unavailable")

const (
	// confusionLookback is how many recent user messages are scanned for
	// confusion topics.
	confusionLookback = 10
	// confusionThreshold marks a message as confused below this polarity.
	confusionThreshold = -0.3
	// recentTopicLimit caps how many topics feed prompt continuity.
	recentTopicLimit = 3
)

// Engine ties the store, sentiment analyzer and generator together.
type Engine struct {
	store    *store.Store
	gen      llm.Generator
	analyzer sentiment.Analyzer
	now      func() time.Time
}

// NewEngine creates a tutoring engine. The clock is injectable for tests.
func NewEngine(st *store.Store, gen llm.Generator, analyzer sentiment.Analyzer) *Engine {
	return &Engine{store: st, gen: gen, analyzer: analyzer, now: time.Now}
}

// WithClock overrides the engine's time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// TurnResult is everything a single chat turn produced.
type TurnResult struct {
	Response           string                `json:"response"`
	SentimentScore     float64               `json:"sentiment_score"`
	EmotionCategory    model.EmotionCategory `json:"emotion_category"`
	ShouldGenerateQuiz bool                  `json:"should_generate_quiz"`
	Quiz               *model.Quiz           `json:"quiz,omitempty"`
	SessionID          int64                 `json:"session_id"`
}

// HandleTurn processes one inbound user message: scores sentiment,
// persists it, builds the adaptive prompt, asks the generator for a
// reply, persists the bot message and, when the trigger rule fires,
// attaches a freshly generated quiz. Quiz generation failures degrade
// silently: the turn still succeeds without a quiz.
func (e *Engine) HandleTurn(ctx context.Context, user *model.User, text, topic string) (TurnResult, error) {
	now := e.now()
	score := e.analyzer.Score(text)

	session, err := e.store.GetOrOpenSession(user.ID, now)
	if err != nil {
		return TurnResult{}, fmt.Errorf("opening session: %w", err)
	}

	// History is everything recorded before this turn.
	history, err := e.store.ListMessagesForSession(session.ID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("loading history: %w", err)
	}

	userMsg, err := e.store.RecordMessage(model.Message{
		SessionID:       session.ID,
		UserID:          user.ID,
		Sender:          model.SenderUser,
		Body:            text,
		SentimentScore:  score.Compound,
		EmotionCategory: score.Category,
		Topic:           topic,
	}, now)
	if err != nil {
		return TurnResult{}, fmt.Errorf("recording message: %w", err)
	}

	recentUser, err := e.store.RecentUserMessages(session.ID, confusionLookback)
	if err != nil {
		return TurnResult{}, fmt.Errorf("loading recent messages: %w", err)
	}
	confusion := ConfusionTopics(recentUser)
	recent := RecentTopics(recentUser, recentTopicLimit)

	sysPrompt := prompts.Tutor(user.SkillLevel, score.Compound, recent, confusion)
	reply, err := e.gen.Reply(ctx, sysPrompt, history, text)
	if err != nil {
		return TurnResult{}, fmt.Errorf("%w: %v", ErrExternal, err)
	}

	if _, err := e.store.RecordMessage(model.Message{
		SessionID:       session.ID,
		UserID:          user.ID,
		Sender:          model.SenderBot,
		Body:            reply,
		SentimentScore:  0,
		EmotionCategory: model.EmotionNeutral,
		Topic:           topic,
	}, now); err != nil {
		return TurnResult{}, fmt.Errorf("recording reply: %w", err)
	}

	session, err = e.store.GetSession(session.ID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("reloading session: %w", err)
	}

	result := TurnResult{
		Response:        reply,
		SentimentScore:  score.Compound,
		EmotionCategory: score.Category,
		SessionID:       session.ID,
	}

	if ShouldTriggerQuiz(session.TotalMessages, topic, score.Compound) {
		result.ShouldGenerateQuiz = true
		quiz, err := e.generateQuiz(ctx, user, session.ID, topic, now)
		if err != nil {
			slog.Warn("quiz generation failed, continuing without quiz",
				"user_id", user.ID, "topic", topic, "error", err)
		} else {
			result.Quiz = quiz
			if err := e.store.MarkQuizGenerated(userMsg.ID); err != nil {
				slog.Warn("marking quiz flag failed", "message_id", userMsg.ID, "error", err)
			}
		}
	}

	return result, nil
}

func (e *Engine) generateQuiz(ctx context.Context, user *model.User, sessionID int64, topic string, now time.Time) (*model.Quiz, error) {
	difficulty := DifficultyFor(user.SkillLevel)
	raw, err := e.gen.GenerateQuizJSON(ctx, topic, difficulty)
	if err != nil {
		return nil, err
	}
	payload, err := ParseQuizPayload(raw)
	if err != nil {
		return nil, err
	}

	quiz := model.Quiz{
		SessionID:     sessionID,
		UserID:        user.ID,
		Topic:         topic,
		Difficulty:    difficulty,
		Question:      payload.Question,
		Options:       payload.Options,
		CorrectAnswer: payload.CorrectAnswer,
		Explanation:   payload.Explanation,
		GeneratedAt:   now,
	}
	quiz.ID, err = e.store.CreateQuiz(quiz)
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// DifficultyFor maps a skill level to the quiz difficulty it should get.
func DifficultyFor(level model.SkillLevel) model.Difficulty {
	switch level {
	case model.LevelAdvanced:
		return model.DifficultyAdvanced
	case model.LevelIntermediate:
		return model.DifficultyIntermediate
	default:
		return model.DifficultyBasic
	}
}

// ConfusionTopics returns the distinct topics among the given messages
// whose polarity fell below the confusion threshold. Messages are
// expected newest-first; order of topics follows first appearance.
func ConfusionTopics(msgs []model.Message) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, m := range msgs {
		if m.SentimentScore >= confusionThreshold {
			continue
		}
		if m.Topic == "" || seen[m.Topic] {
			continue
		}
		seen[m.Topic] = true
		topics = append(topics, m.Topic)
	}
	return topics
}

// RecentTopics returns up to limit distinct topics among the given
// messages, newest first.
func RecentTopics(msgs []model.Message, limit int) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, m := range msgs {
		if m.Topic == "" || m.Topic == model.DefaultTopic || seen[m.Topic] {
			continue
		}
		seen[m.Topic] = true
		topics = append(topics, m.Topic)
		if len(topics) == limit {
			break
		}
	}
	return topics
}
