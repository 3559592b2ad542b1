package analytics

import (
	"slices"
	"testing"
	"time"

	"github.com/algotutor/algotutor/internal/i18n"
	"github.com/algotutor/algotutor/internal/model"
	"github.com/algotutor/algotutor/internal/sentiment"
	"github.com/algotutor/algotutor/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestUser(t *testing.T, st *store.Store, email string) int64 {
	t.Helper()
	id, err := st.CreateUser(model.User{
		Name: "Sam", Email: email, PasswordHash: "x",
		PreferredLanguage: "en", SkillLevel: model.LevelBeginner,
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return id
}

func recordUserMessage(t *testing.T, st *store.Store, sessionID, userID int64, topic string, polarity float64, at time.Time) {
	t.Helper()
	_, err := st.RecordMessage(model.Message{
		SessionID:       sessionID,
		UserID:          userID,
		Sender:          model.SenderUser,
		Body:            "msg",
		SentimentScore:  polarity,
		EmotionCategory: sentiment.Categorize(polarity),
		Topic:           topic,
	}, at)
	if err != nil {
		t.Fatalf("recording message: %v", err)
	}
}

func TestLearningSummaryEmptyUser(t *testing.T) {
	st := newTestStore(t)
	userID := newTestUser(t, st, "empty@example.com")

	s, err := New(st).LearningSummary(userID)
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalSessions != 0 || s.TotalMessages != 0 || s.QuizzesTaken != 0 ||
		s.QuizAccuracy != 0 || s.AverageSentiment != 0 || s.AverageSessionMinutes != 0 {
		t.Errorf("summary for inactive user = %+v, want all zeros", s)
	}
	if len(s.TopicsCovered) != 0 || len(s.ConfusionTopics) != 0 || len(s.EmotionalTrends) != 0 {
		t.Errorf("summary lists for inactive user = %+v, want all empty", s)
	}
}

func TestLearningSummary(t *testing.T) {
	st := newTestStore(t)
	userID := newTestUser(t, st, "sam@example.com")
	now := time.Now()

	session, err := st.GetOrOpenSession(userID, now)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []float64{0.4, -0.2, 0.1} {
		recordUserMessage(t, st, session.ID, userID, "Arrays", p, now)
	}
	recordUserMessage(t, st, session.ID, userID, "Graphs", -0.5, now)

	for i, correct := range []bool{true, false} {
		quizID, err := st.CreateQuiz(model.Quiz{
			SessionID: session.ID, UserID: userID, Topic: "Arrays",
			Difficulty: model.DifficultyBasic, Question: "q",
			Options: []string{"a", "b"}, CorrectAnswer: 0, GeneratedAt: now,
		})
		if err != nil {
			t.Fatal(err)
		}
		sel := 1
		if correct {
			sel = 0
		}
		if err := st.RecordQuizAnswer(quizID, sel, correct, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatal(err)
		}
	}

	if err := st.CloseSession(session.ID, now.Add(30*time.Minute)); err != nil {
		t.Fatal(err)
	}

	s, err := New(st).WithClock(func() time.Time { return now }).LearningSummary(userID)
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalSessions != 1 || s.TotalMessages != 4 {
		t.Errorf("sessions/messages = %d/%d, want 1/4", s.TotalSessions, s.TotalMessages)
	}
	if s.QuizzesTaken != 2 || s.QuizzesCorrect != 1 {
		t.Errorf("quizzes = %d taken, %d correct, want 2/1", s.QuizzesTaken, s.QuizzesCorrect)
	}
	if s.QuizAccuracy != 50 {
		t.Errorf("accuracy = %v, want 50", s.QuizAccuracy)
	}
	wantAvg := (0.4 - 0.2 + 0.1 - 0.5) / 4
	if diff := s.AverageSentiment - wantAvg; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("average sentiment = %v, want %v", s.AverageSentiment, wantAvg)
	}
	if got, want := s.TopicsCovered, []string{"Arrays", "Graphs"}; !slices.Equal(got, want) {
		t.Errorf("topics covered = %v, want %v", got, want)
	}
	if got, want := s.ConfusionTopics, []string{"Graphs"}; !slices.Equal(got, want) {
		t.Errorf("confusion topics = %v, want %v", got, want)
	}
	if len(s.EmotionalTrends) != 4 {
		t.Errorf("emotional trends = %d samples, want 4", len(s.EmotionalTrends))
	}
	if s.AverageSessionMinutes != 30 {
		t.Errorf("average session minutes = %v, want 30", s.AverageSessionMinutes)
	}
}

func TestEmotionalTrends(t *testing.T) {
	st := newTestStore(t)
	userID := newTestUser(t, st, "trend@example.com")
	now := time.Now()
	agg := New(st).WithClock(func() time.Time { return now })

	empty, err := agg.EmotionalTrends(userID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Samples) != 0 || empty.AverageSentiment != 0 {
		t.Errorf("empty trend report = %+v, want zeros", empty)
	}

	session, err := st.GetOrOpenSession(userID, now)
	if err != nil {
		t.Fatal(err)
	}
	// Old sample outside the 7-day window, then an improving series.
	recordUserMessage(t, st, session.ID, userID, "Trees", -0.8, now.AddDate(0, 0, -30))
	for i, p := range []float64{-0.4, -0.2, 0.3, 0.5} {
		recordUserMessage(t, st, session.ID, userID, "Trees", p, now.Add(time.Duration(i)*time.Minute))
	}

	report, err := agg.EmotionalTrends(userID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Samples) != 4 {
		t.Fatalf("samples in window = %d, want 4", len(report.Samples))
	}
	if !report.Improving {
		t.Error("series goes from negative to positive, should report improving")
	}
	if report.CategoryCounts[model.EmotionNegative] != 1 {
		t.Errorf("negative count = %d, want 1", report.CategoryCounts[model.EmotionNegative])
	}
	if report.CategoryCounts[model.EmotionPositive] != 2 {
		t.Errorf("positive count = %d, want 2", report.CategoryCounts[model.EmotionPositive])
	}
}

func TestTopicPerformanceBuckets(t *testing.T) {
	st := newTestStore(t)
	userID := newTestUser(t, st, "topic@example.com")
	now := time.Now()

	session, err := st.GetOrOpenSession(userID, now)
	if err != nil {
		t.Fatal(err)
	}
	recordUserMessage(t, st, session.ID, userID, "Arrays", 0.5, now)
	recordUserMessage(t, st, session.ID, userID, "Arrays", 0.1, now)
	recordUserMessage(t, st, session.ID, userID, "Graphs", -0.6, now)
	recordUserMessage(t, st, session.ID, userID, "Stacks", 0.0, now)
	recordUserMessage(t, st, session.ID, userID, "", 0.9, now)

	// One quiz on a chatted topic, one on a topic with no messages.
	answerQuiz(t, st, session.ID, userID, "Arrays", true, now)
	answerQuiz(t, st, session.ID, userID, "Queues", false, now)

	stats, err := New(st).TopicPerformance(userID)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]model.SkillLevel{
		"Arrays": model.LevelBeginner,     // mean 0.3
		"Graphs": model.LevelAdvanced,     // mean -0.6
		"Queues": model.LevelIntermediate, // no messages
		"Stacks": model.LevelIntermediate, // mean 0.0
	}
	if len(stats) != len(want) {
		t.Fatalf("got %d topics, want %d: %+v", len(stats), len(want), stats)
	}
	rows := map[string]TopicStats{}
	for _, s := range stats {
		rows[s.Topic] = s
		if want[s.Topic] != s.ComfortLevel {
			t.Errorf("topic %s comfort = %s, want %s", s.Topic, s.ComfortLevel, want[s.Topic])
		}
	}
	if stats[0].Topic != "Arrays" {
		t.Errorf("topics not sorted: first is %s", stats[0].Topic)
	}
	if a := rows["Arrays"]; a.QuizCount != 1 || a.QuizAccuracy != 100 {
		t.Errorf("Arrays quiz stats = %d/%v, want 1/100", a.QuizCount, a.QuizAccuracy)
	}
	if q := rows["Queues"]; q.MessageCount != 0 || q.QuizCount != 1 || q.QuizAccuracy != 0 {
		t.Errorf("Queues stats = %+v, want quiz-only row with 0%% accuracy", q)
	}
	if g := rows["Graphs"]; g.QuizCount != 0 {
		t.Errorf("Graphs quiz count = %d, want 0", g.QuizCount)
	}
}

func answerQuiz(t *testing.T, st *store.Store, sessionID, userID int64, topic string, correct bool, at time.Time) {
	t.Helper()
	quizID, err := st.CreateQuiz(model.Quiz{
		SessionID: sessionID, UserID: userID, Topic: topic,
		Difficulty: model.DifficultyBasic, Question: "q",
		Options: []string{"a", "b"}, CorrectAnswer: 0, GeneratedAt: at,
	})
	if err != nil {
		t.Fatalf("creating quiz: %v", err)
	}
	sel := 1
	if correct {
		sel = 0
	}
	if err := st.RecordQuizAnswer(quizID, sel, correct, at); err != nil {
		t.Fatalf("answering quiz: %v", err)
	}
}

func TestRecommendations(t *testing.T) {
	st := newTestStore(t)
	userID := newTestUser(t, st, "rec@example.com")
	now := time.Now()

	bundle, err := i18n.New()
	if err != nil {
		t.Fatal(err)
	}
	loc := i18n.Localizer(bundle, "en")
	agg := New(st).WithClock(func() time.Time { return now })

	report, err := agg.Recommendations(userID, loc)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("recommendations for inactive user = %v, want a single generic nudge", report.Recommendations)
	}
	if report.CurrentMood != "neutral" || report.LearningPace != "slow" {
		t.Errorf("inactive user mood/pace = %s/%s, want neutral/slow", report.CurrentMood, report.LearningPace)
	}

	session, err := st.GetOrOpenSession(userID, now)
	if err != nil {
		t.Fatal(err)
	}
	recordUserMessage(t, st, session.ID, userID, "Recursion", -0.7, now)

	report, err = agg.Recommendations(userID, loc)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Recommendations) < 2 {
		t.Fatalf("recommendations = %v, want confusion review plus mood advice", report.Recommendations)
	}
	if report.CurrentMood != "negative" {
		t.Errorf("mood after a -0.7 message = %s, want negative", report.CurrentMood)
	}
	if report.LearningPace != "slow" {
		t.Errorf("pace with one sample = %s, want slow", report.LearningPace)
	}
}

func TestResearchMetricsEmpty(t *testing.T) {
	st := newTestStore(t)

	m, err := New(st).ResearchMetrics()
	if err != nil {
		t.Fatal(err)
	}
	if m != (model.ResearchMetrics{}) {
		t.Errorf("metrics on empty store = %+v, want all zeros", m)
	}
}
