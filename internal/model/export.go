package model

import "time"

// ResearchExport is the top-level JSON structure for the research data
// export.
type ResearchExport struct {
	ExportedAt time.Time          `json:"exported_at"`
	Users      []User             `json:"users"`
	Sessions   []Session          `json:"sessions"`
	Messages   []Message          `json:"messages"`
	Quizzes    []Quiz             `json:"quizzes"`
	Trends     []TrendSample      `json:"emotional_trends"`
	Progress   []QuestionProgress `json:"progress"`
}

// ResearchMetrics summarizes study-wide aggregates for analysis.
type ResearchMetrics struct {
	TotalParticipants        int     `json:"total_participants"`
	AverageSessionDuration   float64 `json:"average_session_duration"` // minutes
	AverageQuizAccuracy      float64 `json:"average_quiz_accuracy"`    // percentage 0-100
	EmotionalImprovementRate float64 `json:"emotional_improvement_rate"`
}
