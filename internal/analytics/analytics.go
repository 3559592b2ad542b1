// Package analytics derives read-only summary statistics from the
// stored tutoring records. It makes no tutoring decisions.
package analytics

import (
	"fmt"
	"sort"
	"time"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/algotutor/algotutor/internal/i18n"
	"github.com/algotutor/algotutor/internal/model"
	"github.com/algotutor/algotutor/internal/sentiment"
	"github.com/algotutor/algotutor/internal/store"
)

// trendLookback is how many recent trend samples feed mood and
// confusion-based recommendations.
const trendLookback = 10

// summaryTrendWindowDays is the emotional-trend window embedded in the
// learning summary.
const summaryTrendWindowDays = 30

// Aggregator computes analytics over a store.
type Aggregator struct {
	store *store.Store
	now   func() time.Time
}

// New creates an aggregator. The clock is injectable for tests.
func New(st *store.Store) *Aggregator {
	return &Aggregator{store: st, now: time.Now}
}

// WithClock overrides the aggregator's time source.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// LearningSummary is the per-user headline numbers. All fields are zero
// or empty for a user with no activity. Accuracy is a percentage
// (0-100).
type LearningSummary struct {
	TotalSessions    int     `json:"total_sessions"`
	TotalMessages    int     `json:"total_messages"`
	QuizzesTaken     int     `json:"quizzes_taken"`
	QuizzesCorrect   int     `json:"quizzes_correct"`
	QuizAccuracy     float64 `json:"quiz_accuracy"`
	AverageSentiment float64 `json:"average_sentiment"`
	// TopicsCovered lists every topic the user has chatted about;
	// ConfusionTopics is the subset where any message scored below the
	// negative threshold. Both are sorted.
	TopicsCovered   []string `json:"topics_covered"`
	ConfusionTopics []string `json:"confusion_topics"`
	// EmotionalTrends is the last 30 days of samples, oldest first.
	EmotionalTrends []model.TrendSample `json:"emotional_trends"`
	// AverageSessionMinutes is the mean duration of completed sessions.
	AverageSessionMinutes float64 `json:"average_session_minutes"`
}

// LearningSummary aggregates a user's sessions, messages, and quizzes.
func (a *Aggregator) LearningSummary(userID int64) (LearningSummary, error) {
	sessions, err := a.store.ListSessionsByUser(userID)
	if err != nil {
		return LearningSummary{}, fmt.Errorf("listing sessions: %w", err)
	}
	quizzes, err := a.store.ListQuizzesByUser(userID)
	if err != nil {
		return LearningSummary{}, fmt.Errorf("listing quizzes: %w", err)
	}
	trends, err := a.store.ListTrendsSince(userID, time.Time{})
	if err != nil {
		return LearningSummary{}, fmt.Errorf("listing trends: %w", err)
	}

	s := LearningSummary{
		TopicsCovered:   []string{},
		ConfusionTopics: []string{},
		EmotionalTrends: []model.TrendSample{},
	}
	s.TotalSessions = len(sessions)
	var sentimentSum, durationSum float64
	var completed int
	for _, sess := range sessions {
		s.TotalMessages += sess.TotalMessages
		sentimentSum += sess.AverageSentiment * float64(sess.TotalMessages)
		if sess.EndedAt != nil {
			durationSum += sess.EndedAt.Sub(sess.StartedAt).Minutes()
			completed++
		}
	}
	if s.TotalMessages > 0 {
		s.AverageSentiment = sentimentSum / float64(s.TotalMessages)
	}
	if completed > 0 {
		s.AverageSessionMinutes = durationSum / float64(completed)
	}

	for _, q := range quizzes {
		if !q.Answered() {
			continue
		}
		s.QuizzesTaken++
		if q.IsCorrect != nil && *q.IsCorrect {
			s.QuizzesCorrect++
		}
	}
	if s.QuizzesTaken > 0 {
		s.QuizAccuracy = float64(s.QuizzesCorrect) / float64(s.QuizzesTaken) * 100
	}

	covered := map[string]bool{}
	confused := map[string]bool{}
	windowStart := a.now().AddDate(0, 0, -summaryTrendWindowDays)
	for _, t := range trends {
		if t.Topic != "" {
			covered[t.Topic] = true
			if t.SentimentScore < sentiment.NegativeThreshold {
				confused[t.Topic] = true
			}
		}
		if !t.CreatedAt.Before(windowStart) {
			s.EmotionalTrends = append(s.EmotionalTrends, t)
		}
	}
	s.TopicsCovered = sortedKeys(covered)
	s.ConfusionTopics = sortedKeys(confused)
	return s, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TrendReport is the emotional time series over a window plus its
// aggregates.
type TrendReport struct {
	Samples          []model.TrendSample           `json:"samples"`
	AverageSentiment float64                       `json:"average_sentiment"`
	CategoryCounts   map[model.EmotionCategory]int `json:"category_counts"`
	Improving        bool                          `json:"improving"`
}

// EmotionalTrends returns the user's trend samples from the last given
// number of days. Improvement compares the mean of the second half of
// the window against the first.
func (a *Aggregator) EmotionalTrends(userID int64, days int) (TrendReport, error) {
	since := a.now().AddDate(0, 0, -days)
	samples, err := a.store.ListTrendsSince(userID, since)
	if err != nil {
		return TrendReport{}, fmt.Errorf("listing trends: %w", err)
	}

	report := TrendReport{
		Samples:        samples,
		CategoryCounts: map[model.EmotionCategory]int{},
	}
	if len(samples) == 0 {
		return report, nil
	}

	var sum float64
	for _, s := range samples {
		sum += s.SentimentScore
		report.CategoryCounts[s.EmotionCategory]++
	}
	report.AverageSentiment = sum / float64(len(samples))

	if len(samples) >= 2 {
		mid := len(samples) / 2
		report.Improving = mean(samples[mid:]) > mean(samples[:mid])
	}
	return report, nil
}

func mean(samples []model.TrendSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.SentimentScore
	}
	return sum / float64(len(samples))
}

// TopicStats is one row of the topic performance breakdown. Accuracy
// is a percentage (0-100).
type TopicStats struct {
	Topic            string  `json:"topic"`
	MessageCount     int     `json:"message_count"`
	AverageSentiment float64 `json:"average_sentiment"`
	QuizCount        int     `json:"quiz_count"`
	QuizAccuracy     float64 `json:"quiz_accuracy"`
	// ComfortLevel buckets how the user feels about the topic.
	ComfortLevel model.SkillLevel `json:"comfort_level"`
}

// TopicPerformance groups the user's trend samples and answered
// quizzes by topic. A topic appears when it has either messages or
// quizzes. Topics are sorted alphabetically for stable output.
func (a *Aggregator) TopicPerformance(userID int64) ([]TopicStats, error) {
	samples, err := a.store.ListTrendsSince(userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("listing trends: %w", err)
	}
	quizzes, err := a.store.ListQuizzesByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("listing quizzes: %w", err)
	}

	type acc struct {
		sum     float64
		count   int
		quizzes int
		correct int
	}
	byTopic := map[string]*acc{}
	topicAcc := func(topic string) *acc {
		entry := byTopic[topic]
		if entry == nil {
			entry = &acc{}
			byTopic[topic] = entry
		}
		return entry
	}
	for _, s := range samples {
		if s.Topic == "" {
			continue
		}
		entry := topicAcc(s.Topic)
		entry.sum += s.SentimentScore
		entry.count++
	}
	for _, q := range quizzes {
		if q.Topic == "" || !q.Answered() {
			continue
		}
		entry := topicAcc(q.Topic)
		entry.quizzes++
		if q.IsCorrect != nil && *q.IsCorrect {
			entry.correct++
		}
	}

	stats := make([]TopicStats, 0, len(byTopic))
	for topic, entry := range byTopic {
		var avg float64
		if entry.count > 0 {
			avg = entry.sum / float64(entry.count)
		}
		var accuracy float64
		if entry.quizzes > 0 {
			accuracy = float64(entry.correct) / float64(entry.quizzes) * 100
		}
		stats = append(stats, TopicStats{
			Topic:            topic,
			MessageCount:     entry.count,
			AverageSentiment: avg,
			QuizCount:        entry.quizzes,
			QuizAccuracy:     accuracy,
			ComfortLevel:     comfortLevel(avg),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Topic < stats[j].Topic })
	return stats, nil
}

// comfortLevel buckets a topic's mean sentiment into the difficulty the
// user seems to experience there.
func comfortLevel(meanSentiment float64) model.SkillLevel {
	switch {
	case meanSentiment > 0.1:
		return model.LevelBeginner
	case meanSentiment > -0.1:
		return model.LevelIntermediate
	default:
		return model.LevelAdvanced
	}
}

// RecommendationReport pairs the suggestion list with coarse buckets
// of the user's current state, both derived from the same recent-trend
// lookback.
type RecommendationReport struct {
	Recommendations []string `json:"recommendations"`
	// CurrentMood buckets the latest sample: positive, neutral, or
	// negative.
	CurrentMood string `json:"current_mood"`
	// LearningPace buckets recent activity volume: fast, moderate, or
	// slow.
	LearningPace string `json:"learning_pace"`
}

// Recommendations builds an ordered, localized list of next-step
// suggestions: confusion topics first, then failed quizzes, due
// reviews, mood, and finally a generic nudge when nothing else applies.
func (a *Aggregator) Recommendations(userID int64, loc *goi18n.Localizer) (RecommendationReport, error) {
	var report RecommendationReport
	trends, err := a.store.RecentTrends(userID, trendLookback)
	if err != nil {
		return report, fmt.Errorf("listing trends: %w", err)
	}
	quizzes, err := a.store.ListQuizzesByUser(userID)
	if err != nil {
		return report, fmt.Errorf("listing quizzes: %w", err)
	}
	due, err := a.store.DueTopics(userID, a.now())
	if err != nil {
		return report, fmt.Errorf("listing due topics: %w", err)
	}

	var recs []string

	seen := map[string]bool{}
	for _, s := range trends {
		if s.SentimentScore >= sentiment.NegativeThreshold || s.Topic == "" || seen[s.Topic] {
			continue
		}
		seen[s.Topic] = true
		recs = append(recs, i18n.T(loc, "rec.review_confusion", map[string]any{"Topic": s.Topic}))
	}

	failedSeen := map[string]bool{}
	for _, q := range quizzes {
		if !q.Answered() || q.IsCorrect == nil || *q.IsCorrect || failedSeen[q.Topic] {
			continue
		}
		failedSeen[q.Topic] = true
		recs = append(recs, i18n.T(loc, "rec.retry_quiz", map[string]any{"Topic": q.Topic}))
	}

	if len(due) > 0 {
		recs = append(recs, i18n.T(loc, "rec.due_review", map[string]any{"Count": len(due)}))
	}

	if len(trends) > 0 {
		avg := mean(trends)
		switch {
		case avg < -0.1:
			recs = append(recs, i18n.T(loc, "rec.mood_negative", nil))
		case avg > 0.3:
			recs = append(recs, i18n.T(loc, "rec.mood_positive", nil))
		}
	}

	if len(recs) == 0 {
		recs = append(recs, i18n.T(loc, "rec.keep_practicing", nil))
	}

	report.Recommendations = recs
	report.CurrentMood = "neutral"
	if len(trends) > 0 {
		// RecentTrends is newest-first; index 0 is the latest sample.
		switch latest := trends[0].SentimentScore; {
		case latest > 0:
			report.CurrentMood = "positive"
		case latest <= -0.2:
			report.CurrentMood = "negative"
		}
	}
	switch {
	case len(trends) > 5:
		report.LearningPace = "fast"
	case len(trends) > 2:
		report.LearningPace = "moderate"
	default:
		report.LearningPace = "slow"
	}
	return report, nil
}

// ResearchMetrics computes study-wide aggregates across all users.
func (a *Aggregator) ResearchMetrics() (model.ResearchMetrics, error) {
	export, err := a.store.ExportAll()
	if err != nil {
		return model.ResearchMetrics{}, fmt.Errorf("exporting records: %w", err)
	}

	m := model.ResearchMetrics{TotalParticipants: len(export.Users)}

	var durationSum float64
	var ended int
	for _, s := range export.Sessions {
		if s.EndedAt == nil {
			continue
		}
		durationSum += s.EndedAt.Sub(s.StartedAt).Minutes()
		ended++
	}
	if ended > 0 {
		m.AverageSessionDuration = durationSum / float64(ended)
	}

	var answered, correct int
	for _, q := range export.Quizzes {
		if !q.Answered() {
			continue
		}
		answered++
		if q.IsCorrect != nil && *q.IsCorrect {
			correct++
		}
	}
	if answered > 0 {
		m.AverageQuizAccuracy = float64(correct) / float64(answered) * 100
	}

	// A user counts as improved when the second half of their trend
	// series averages higher than the first.
	var withTrends, improved int
	for _, u := range export.Users {
		var samples []model.TrendSample
		for _, s := range export.Trends {
			if s.UserID == u.ID {
				samples = append(samples, s)
			}
		}
		if len(samples) < 2 {
			continue
		}
		withTrends++
		mid := len(samples) / 2
		if mean(samples[mid:]) > mean(samples[:mid]) {
			improved++
		}
	}
	if withTrends > 0 {
		m.EmotionalImprovementRate = float64(improved) / float64(withTrends)
	}
	return m, nil
}
