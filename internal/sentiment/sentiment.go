// Package sentiment scores free text for polarity and buckets it into a
// coarse emotion category.
package sentiment

import (
	"github.com/jonreiter/govader"

	"github.com/algotutor/algotutor/internal/model"
)

// Thresholds for the coarse category buckets. Text below the negative
// threshold also counts as confusion when tied to a topic.
const (
	PositiveThreshold = 0.3
	NegativeThreshold = -0.3
)

// Score is the full result of scoring one text.
type Score struct {
	Compound float64               `json:"compound"`
	Positive float64               `json:"positive"`
	Negative float64               `json:"negative"`
	Neutral  float64               `json:"neutral"`
	Category model.EmotionCategory `json:"category"`
}

// Analyzer maps free text to a polarity score. Implementations must be
// pure: same text, same score.
type Analyzer interface {
	Score(text string) Score
}

// VADER is the production Analyzer backed by the VADER lexicon.
type VADER struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVADER creates a VADER analyzer.
func NewVADER() *VADER {
	return &VADER{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Score implements Analyzer.
func (v *VADER) Score(text string) Score {
	ps := v.sia.PolarityScores(text)
	return Score{
		Compound: ps.Compound,
		Positive: ps.Positive,
		Negative: ps.Negative,
		Neutral:  ps.Neutral,
		Category: Categorize(ps.Compound),
	}
}

// Categorize buckets a compound polarity into positive, negative, or
// neutral.
func Categorize(compound float64) model.EmotionCategory {
	switch {
	case compound >= PositiveThreshold:
		return model.EmotionPositive
	case compound <= NegativeThreshold:
		return model.EmotionNegative
	default:
		return model.EmotionNeutral
	}
}
