package model

import (
	"context"
	"time"
)

// SkillLevel represents a user's self-reported DSA proficiency.
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "Beginner"
	LevelIntermediate SkillLevel = "Intermediate"
	LevelAdvanced     SkillLevel = "Advanced"
)

// User represents a registered learner.
type User struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	PreferredLanguage string     `json:"preferred_language"`
	SkillLevel        SkillLevel `json:"skill_level"`
	CreatedAt         time.Time  `json:"created_at"`
}

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Sender represents who produced a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// EmotionCategory is the coarse sentiment bucket for a message.
type EmotionCategory string

const (
	EmotionPositive EmotionCategory = "positive"
	EmotionNeutral  EmotionCategory = "neutral"
	EmotionNegative EmotionCategory = "negative"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// DefaultTopic is the fallback topic for untagged messages. Quizzes are
// never generated for it.
const DefaultTopic = "General DSA"

// Question is an entry in the seeded question bank.
type Question struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	Language    string     `json:"language"`
	Topic       string     `json:"topic"`
	Solution    string     `json:"solution,omitempty"`
	Examples    []Example  `json:"examples,omitempty"`
}

// Example is one worked input/output pair attached to a question.
type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// Session is one continuous tutoring interaction for a user. EndedAt is
// nil while the session is active; at most one active session exists per
// user.
type Session struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	TotalMessages    int        `json:"total_messages"`
	AverageSentiment float64    `json:"average_sentiment"`
}

// Active reports whether the session is still open.
func (s Session) Active() bool { return s.EndedAt == nil }

// Message is a single chat message inside a session. Immutable after
// insert except for the quiz flag.
type Message struct {
	ID              int64           `json:"id"`
	SessionID       int64           `json:"session_id"`
	UserID          int64           `json:"user_id"`
	Sender          Sender          `json:"sender"`
	Body            string          `json:"body"`
	SentimentScore  float64         `json:"sentiment_score"`
	EmotionCategory EmotionCategory `json:"emotion_category"`
	Topic           string          `json:"topic,omitempty"`
	QuizGenerated   bool            `json:"quiz_generated"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TrendSample is one appended point of the per-user emotional time series.
type TrendSample struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	SessionID       int64           `json:"session_id"`
	SentimentScore  float64         `json:"sentiment_score"`
	EmotionCategory EmotionCategory `json:"emotion_category"`
	Topic           string          `json:"topic,omitempty"`
	MessageCount    int             `json:"message_count"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Quiz is a generated multiple-choice check-in. The answer fields
// (UserAnswer, IsCorrect, AnsweredAt) are either all unset or all set.
type Quiz struct {
	ID            int64      `json:"id"`
	SessionID     int64      `json:"session_id"`
	UserID        int64      `json:"user_id"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correct_answer"`
	Explanation   string     `json:"explanation,omitempty"`
	UserAnswer    *int       `json:"user_answer,omitempty"`
	IsCorrect     *bool      `json:"is_correct,omitempty"`
	GeneratedAt   time.Time  `json:"generated_at"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
}

// Answered reports whether the quiz already has a recorded answer.
func (q Quiz) Answered() bool { return q.AnsweredAt != nil }

// RepetitionEntry is the per-(user, topic) spaced-repetition state.
type RepetitionEntry struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	TopicID         int64     `json:"topic_id"`
	DifficultyLevel int       `json:"difficulty_level"`
	NextReview      time.Time `json:"next_review"`
	ReviewCount     int       `json:"review_count"`
	SuccessRate     float64   `json:"success_rate"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DueTopic is a repetition entry joined with its question title for
// display.
type DueTopic struct {
	TopicID         int64     `json:"topic_id"`
	TopicTitle      string    `json:"topic_title"`
	NextReview      time.Time `json:"next_review"`
	ReviewCount     int       `json:"review_count"`
	SuccessRate     float64   `json:"success_rate"`
	DifficultyLevel int       `json:"difficulty_level"`
}

// Bookmark is a user-saved pointer to a question or message.
type Bookmark struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	QuestionID  *int64    `json:"question_id,omitempty"`
	MessageID   *int64    `json:"message_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuestionProgress tracks a user's attempts on a bank question.
type QuestionProgress struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	QuestionID int64     `json:"question_id"`
	Attempted  bool      `json:"attempted"`
	Solved     bool      `json:"solved"`
	LastAnswer string    `json:"last_answer,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SessionPause is one pause/resume interval within a session.
type SessionPause struct {
	ID        int64      `json:"id"`
	SessionID int64      `json:"session_id"`
	PausedAt  time.Time  `json:"paused_at"`
	ResumedAt *time.Time `json:"resumed_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Addr           string
	JWTSecret      string
	TokenTTL       time.Duration
	RequestTimeout time.Duration // bound on external calls per chat turn
	HistoryLimit   int           // conversation messages sent to the LLM
}
