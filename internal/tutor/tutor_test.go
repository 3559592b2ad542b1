package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/algotutor/algotutor/internal/i18n"
	"github.com/algotutor/algotutor/internal/model"
	"github.com/algotutor/algotutor/internal/sentiment"
	"github.com/algotutor/algotutor/internal/store"
)

// fakeGen returns canned replies and quiz JSON.
type fakeGen struct {
	reply     string
	quizJSON  string
	quizErr   error
	quizCalls int
}

func (f *fakeGen) Reply(_ context.Context, _ string, _ []model.Message, _ string) (string, error) {
	return f.reply, nil
}

func (f *fakeGen) GenerateQuizJSON(_ context.Context, _ string, _ model.Difficulty) (string, error) {
	f.quizCalls++
	if f.quizErr != nil {
		return "", f.quizErr
	}
	return f.quizJSON, nil
}

// fakeAnalyzer replays a scripted sequence of polarities.
type fakeAnalyzer struct {
	scores []float64
	i      int
}

func (f *fakeAnalyzer) Score(_ string) sentiment.Score {
	s := f.scores[f.i%len(f.scores)]
	f.i++
	return sentiment.Score{Compound: s, Category: sentiment.Categorize(s)}
}

const validQuizJSON = `{
	"question": "What is the average lookup cost of a hash table?",
	"options": ["O(1)", "O(log n)", "O(n)", "O(n log n)"],
	"correct_answer": 0,
	"explanation": "Amortized constant time with a good hash function."
}`

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestUser(t *testing.T, st *store.Store) *model.User {
	t.Helper()
	u := model.User{
		Name:              "Dana",
		Email:             "dana@example.com",
		PasswordHash:      "x",
		PreferredLanguage: "en",
		SkillLevel:        model.LevelBeginner,
	}
	id, err := st.CreateUser(u)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	u.ID = id
	return &u
}

func TestShouldTriggerQuiz(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		topic    string
		polarity float64
		want     bool
	}{
		{"all conditions met", 3, "Arrays", 0.1, true},
		{"multiple of three, positive polarity", 6, "Graphs", 0.5, true},
		{"mild negativity tolerated", 3, "Arrays", -0.1, true},
		{"zero count", 0, "Arrays", 0.1, false},
		{"count not multiple of three", 4, "Arrays", 0.1, false},
		{"negative count", -3, "Arrays", 0.1, false},
		{"no topic", 3, "", 0.1, false},
		{"default topic", 3, model.DefaultTopic, 0.1, false},
		{"at frustration floor", 3, "Arrays", -0.2, false},
		{"below frustration floor", 3, "Arrays", -0.5, false},
		{"no topic and frustrated", 3, "", -0.5, false},
		{"wrong count and no topic", 4, "", 0.1, false},
		{"wrong count and frustrated", 4, "Arrays", -0.5, false},
		{"everything wrong", 0, "", -0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldTriggerQuiz(tt.count, tt.topic, tt.polarity); got != tt.want {
				t.Errorf("ShouldTriggerQuiz(%d, %q, %v) = %v, want %v",
					tt.count, tt.topic, tt.polarity, got, tt.want)
			}
		})
	}
}

func TestParseQuizPayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", validQuizJSON, false},
		{"fenced", "```json\n" + validQuizJSON + "\n```", false},
		{"not json", "Sure! Here is your quiz:", true},
		{"empty question", `{"question":"  ","options":["a","b"],"correct_answer":0}`, true},
		{"one option", `{"question":"q","options":["a"],"correct_answer":0}`, true},
		{"index out of range", `{"question":"q","options":["a","b"],"correct_answer":2}`, true},
		{"negative index", `{"question":"q","options":["a","b"],"correct_answer":-1}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseQuizPayload(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrQuizParse) {
					t.Fatalf("want ErrQuizParse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Question == "" || len(p.Options) != 4 || p.CorrectAnswer != 0 {
				t.Errorf("unexpected payload: %+v", p)
			}
		})
	}
}

func TestHandleTurnTriggersQuizOnThirdMessage(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st)
	gen := &fakeGen{reply: "Let's walk through it.", quizJSON: validQuizJSON}
	analyzer := &fakeAnalyzer{scores: []float64{-0.5, -0.4, 0.1}}
	engine := NewEngine(st, gen, analyzer)

	var last TurnResult
	for i := 0; i < 3; i++ {
		var err error
		last, err = engine.HandleTurn(context.Background(), user, "help me with arrays", "Arrays")
		if err != nil {
			t.Fatalf("turn %d: %v", i+1, err)
		}
	}

	if !last.ShouldGenerateQuiz {
		t.Fatal("quiz trigger should fire on the third user message")
	}
	if last.Quiz == nil {
		t.Fatal("expected quiz attached to the turn result")
	}
	if last.Quiz.Topic != "Arrays" {
		t.Errorf("quiz topic = %q, want Arrays", last.Quiz.Topic)
	}
	if last.Quiz.Difficulty != model.DifficultyBasic {
		t.Errorf("quiz difficulty = %q, want basic for a beginner", last.Quiz.Difficulty)
	}

	// Two of the three messages were below -0.3, so Arrays is confusing.
	recent, err := st.RecentUserMessages(last.SessionID, 10)
	if err != nil {
		t.Fatal(err)
	}
	confusion := ConfusionTopics(recent)
	if len(confusion) != 1 || confusion[0] != "Arrays" {
		t.Errorf("confusion topics = %v, want [Arrays]", confusion)
	}
}

func TestHandleTurnNoQuizBeforeThirdMessage(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st)
	gen := &fakeGen{reply: "ok", quizJSON: validQuizJSON}
	engine := NewEngine(st, gen, &fakeAnalyzer{scores: []float64{0.2}})

	res, err := engine.HandleTurn(context.Background(), user, "hello", "Arrays")
	if err != nil {
		t.Fatal(err)
	}
	if res.ShouldGenerateQuiz || res.Quiz != nil {
		t.Error("quiz should not trigger on the first message")
	}
	if gen.quizCalls != 0 {
		t.Errorf("generator called %d times for a quiz, want 0", gen.quizCalls)
	}
}

func TestHandleTurnQuizFailureDegradesSilently(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st)
	gen := &fakeGen{reply: "ok", quizErr: errors.New("model offline")}
	engine := NewEngine(st, gen, &fakeAnalyzer{scores: []float64{0.2}})

	var last TurnResult
	for i := 0; i < 3; i++ {
		var err error
		last, err = engine.HandleTurn(context.Background(), user, "tell me more", "Trees")
		if err != nil {
			t.Fatalf("turn %d: %v", i+1, err)
		}
	}
	if !last.ShouldGenerateQuiz {
		t.Error("trigger decision should still be reported")
	}
	if last.Quiz != nil {
		t.Error("failed generation must not attach a quiz")
	}
	if last.Response != "ok" {
		t.Errorf("response = %q, want the tutor reply", last.Response)
	}
}

func TestAnswerQuizOnce(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st)
	engine := NewEngine(st, &fakeGen{}, &fakeAnalyzer{scores: []float64{0}})

	session, err := st.GetOrOpenSession(user.ID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	quizID, err := st.CreateQuiz(model.Quiz{
		SessionID:     session.ID,
		UserID:        user.ID,
		Topic:         "Stacks",
		Difficulty:    model.DifficultyBasic,
		Question:      "LIFO or FIFO?",
		Options:       []string{"LIFO", "FIFO"},
		CorrectAnswer: 0,
		Explanation:   "A stack pops the most recently pushed element.",
		GeneratedAt:   time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	bundle, err := i18n.New()
	if err != nil {
		t.Fatal(err)
	}
	loc := i18n.Localizer(bundle, "en")

	res, err := engine.AnswerQuiz(quizID, user.ID, 1, loc)
	if err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if res.Correct {
		t.Error("option 1 is wrong, result should not be correct")
	}
	if res.CorrectAnswer != 0 {
		t.Errorf("correct answer index = %d, want 0", res.CorrectAnswer)
	}
	if res.Feedback == "" {
		t.Error("feedback should not be empty")
	}

	if _, err := engine.AnswerQuiz(quizID, user.ID, 0, loc); !errors.Is(err, store.ErrQuizAnswered) {
		t.Fatalf("second answer: want ErrQuizAnswered, got %v", err)
	}
}

func TestAnswerQuizCorrectFeedbackNamesOption(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st)
	engine := NewEngine(st, &fakeGen{}, &fakeAnalyzer{scores: []float64{0}})

	session, err := st.GetOrOpenSession(user.ID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	quizID, err := st.CreateQuiz(model.Quiz{
		SessionID:     session.ID,
		UserID:        user.ID,
		Topic:         "Stacks",
		Difficulty:    model.DifficultyBasic,
		Question:      "LIFO or FIFO?",
		Options:       []string{"LIFO", "FIFO"},
		CorrectAnswer: 0,
		Explanation:   "A stack pops the most recently pushed element.",
		GeneratedAt:   time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	bundle, err := i18n.New()
	if err != nil {
		t.Fatal(err)
	}
	loc := i18n.Localizer(bundle, "en")

	res, err := engine.AnswerQuiz(quizID, user.ID, 0, loc)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Correct {
		t.Error("option 0 is right, result should be correct")
	}
	if !strings.Contains(res.Feedback, "LIFO") {
		t.Errorf("feedback %q should name the correct option", res.Feedback)
	}
}

func TestMarkReviewedSchedule(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st)
	topicID, err := st.InsertQuestion(model.Question{
		Title: "Binary Search", Difficulty: model.DifficultyBasic, Language: "en", Topic: "Searching",
	})
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(st, &fakeGen{}, &fakeAnalyzer{scores: []float64{0}}).
		WithClock(func() time.Time { return base })

	steps := []struct {
		success   bool
		wantDays  int
		wantCount int
		wantRate  float64
	}{
		{true, 2, 1, 1},
		{true, 4, 2, 1},
		{false, 1, 3, 2.0 / 3.0},
	}
	for i, step := range steps {
		entry, err := engine.MarkReviewed(user.ID, topicID, step.success)
		if err != nil {
			t.Fatalf("review %d: %v", i+1, err)
		}
		if entry.ReviewCount != step.wantCount {
			t.Errorf("review %d: count = %d, want %d", i+1, entry.ReviewCount, step.wantCount)
		}
		wantNext := base.AddDate(0, 0, step.wantDays)
		if !entry.NextReview.Equal(wantNext) {
			t.Errorf("review %d: next review = %v, want %v", i+1, entry.NextReview, wantNext)
		}
		if diff := entry.SuccessRate - step.wantRate; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("review %d: success rate = %v, want %v", i+1, entry.SuccessRate, step.wantRate)
		}
	}
}

func TestMarkReviewedIntervalCap(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st)
	topicID, err := st.InsertQuestion(model.Question{
		Title: "Dijkstra", Difficulty: model.DifficultyAdvanced, Language: "en", Topic: "Graphs",
	})
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(st, &fakeGen{}, &fakeAnalyzer{scores: []float64{0}}).
		WithClock(func() time.Time { return base })

	var entry model.RepetitionEntry
	for i := 0; i < 10; i++ {
		var err error
		entry, err = engine.MarkReviewed(user.ID, topicID, true)
		if err != nil {
			t.Fatal(err)
		}
	}
	// 2^10 = 1024 days would overshoot the cap.
	if want := base.AddDate(0, 0, maxReviewIntervalDays); !entry.NextReview.Equal(want) {
		t.Errorf("next review = %v, want capped at %v", entry.NextReview, want)
	}
}

func TestMarkReviewedHugeCountStaysCapped(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st)
	topicID, err := st.InsertQuestion(model.Question{
		Title: "Heaps", Difficulty: model.DifficultyBasic, Language: "en", Topic: "Heaps",
	})
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(st, &fakeGen{}, &fakeAnalyzer{scores: []float64{0}}).
		WithClock(func() time.Time { return base })

	// A review count this large would wrap a naive power-of-two shift.
	seed := model.RepetitionEntry{
		UserID: user.ID, TopicID: topicID, DifficultyLevel: 1,
		ReviewCount: 70, SuccessRate: 1, NextReview: base,
	}
	if err := st.UpsertRepetitionEntry(seed, base); err != nil {
		t.Fatal(err)
	}

	entry, err := engine.MarkReviewed(user.ID, topicID, true)
	if err != nil {
		t.Fatal(err)
	}
	if entry.ReviewCount != 71 {
		t.Errorf("review count = %d, want 71", entry.ReviewCount)
	}
	if want := base.AddDate(0, 0, maxReviewIntervalDays); !entry.NextReview.Equal(want) {
		t.Errorf("next review = %v, want %v", entry.NextReview, want)
	}
	if !entry.NextReview.After(base) {
		t.Errorf("next review %v must be in the future", entry.NextReview)
	}
}

func TestConfusionAndRecentTopics(t *testing.T) {
	msgs := []model.Message{
		{Topic: "Graphs", SentimentScore: 0.4},
		{Topic: "Trees", SentimentScore: -0.6},
		{Topic: "Trees", SentimentScore: -0.5},
		{Topic: "Arrays", SentimentScore: -0.3}, // boundary: not confusion
		{Topic: "", SentimentScore: -0.9},
		{Topic: model.DefaultTopic, SentimentScore: 0.1},
		{Topic: "Sorting", SentimentScore: 0.2},
	}

	confusion := ConfusionTopics(msgs)
	if len(confusion) != 1 || confusion[0] != "Trees" {
		t.Errorf("confusion = %v, want [Trees]", confusion)
	}

	recent := RecentTopics(msgs, 3)
	want := []string{"Graphs", "Trees", "Arrays"}
	if len(recent) != len(want) {
		t.Fatalf("recent = %v, want %v", recent, want)
	}
	for i := range want {
		if recent[i] != want[i] {
			t.Errorf("recent[%d] = %q, want %q", i, recent[i], want[i])
		}
	}
}
