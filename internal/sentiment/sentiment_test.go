package sentiment

import (
	"testing"

	"github.com/algotutor/algotutor/internal/model"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		compound float64
		want     model.EmotionCategory
	}{
		{"strongly positive", 0.8, model.EmotionPositive},
		{"at positive threshold", 0.3, model.EmotionPositive},
		{"just below positive threshold", 0.29, model.EmotionNeutral},
		{"zero", 0, model.EmotionNeutral},
		{"just above negative threshold", -0.29, model.EmotionNeutral},
		{"at negative threshold", -0.3, model.EmotionNegative},
		{"strongly negative", -0.9, model.EmotionNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.compound); got != tt.want {
				t.Errorf("Categorize(%v) = %q, want %q", tt.compound, got, tt.want)
			}
		})
	}
}

func TestVADERScore(t *testing.T) {
	v := NewVADER()

	pos := v.Score("This is great, I love how clear this explanation is!")
	if pos.Compound <= 0 {
		t.Errorf("expected positive compound, got %v", pos.Compound)
	}

	neg := v.Score("I hate this, it is awful and I am completely lost.")
	if neg.Compound >= 0 {
		t.Errorf("expected negative compound, got %v", neg.Compound)
	}

	// Category must agree with the bucketing of the compound score.
	if pos.Category != Categorize(pos.Compound) {
		t.Errorf("category %q does not match compound %v", pos.Category, pos.Compound)
	}
	if neg.Category != Categorize(neg.Compound) {
		t.Errorf("category %q does not match compound %v", neg.Category, neg.Compound)
	}
}
