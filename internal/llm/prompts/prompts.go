// Package prompts builds the system prompts sent to the generation
// service. Composition is deterministic string assembly; no model calls
// happen here.
package prompts

import (
	"fmt"
	"strings"

	"github.com/algotutor/algotutor/internal/model"
)

// Sentiment thresholds that switch tutoring tone.
const (
	frustrationThreshold = -0.3
	confidenceThreshold  = 0.3
)

// recentTopicLimit caps how many recent topics the continuity note names.
const recentTopicLimit = 3

// Tutor composes the adaptive system prompt for one chat turn. Four
// clauses are independent and additive: tone (simplify vs. challenge),
// remediation for confusion topics, and continuity for recent topics.
func Tutor(level model.SkillLevel, polarity float64, recentTopics, confusionTopics []string) string {
	var sb strings.Builder
	sb.WriteString("You are a patient tutor for data structures and algorithms. ")
	sb.WriteString(fmt.Sprintf("The student's level is %s: pitch every explanation at that level, ", level))
	sb.WriteString("prefer intuition and worked examples over formal proofs, and never just hand over full solutions.\n")

	if polarity < frustrationThreshold {
		sb.WriteString("\nThe student currently sounds frustrated or confused. ")
		sb.WriteString("Simplify your explanation, break it into smaller steps, and be explicitly encouraging. ")
		sb.WriteString("Acknowledge that the topic is hard before explaining.\n")
	} else if polarity > confidenceThreshold {
		sb.WriteString("\nThe student currently sounds confident. ")
		sb.WriteString("Raise the difficulty: ask a probing follow-up question, introduce an edge case, ")
		sb.WriteString("or connect the topic to a harder variant.\n")
	}

	if len(confusionTopics) > 0 {
		sb.WriteString("\nThe student has recently struggled with: ")
		sb.WriteString(strings.Join(confusionTopics, ", "))
		sb.WriteString(". Revisit the fundamentals of these topics when they come up, and check understanding before moving on.\n")
	}

	if len(recentTopics) > 0 {
		topics := recentTopics
		if len(topics) > recentTopicLimit {
			topics = topics[:recentTopicLimit]
		}
		sb.WriteString("\nRecent discussion covered: ")
		sb.WriteString(strings.Join(topics, ", "))
		sb.WriteString(". Keep continuity with that thread where it helps.\n")
	}

	return sb.String()
}

// Quiz composes the prompt that asks the generation service for a
// multiple-choice quiz as a strict JSON object.
func Quiz(topic string, difficulty model.Difficulty) string {
	var sb strings.Builder
	sb.WriteString("You are a quiz generator for a data structures and algorithms tutor.\n\n")
	sb.WriteString(fmt.Sprintf("Generate ONE multiple-choice question about %q at %s difficulty.\n\n", topic, difficulty))
	sb.WriteString("Respond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"question": "<question text>", "options": ["<option>", "<option>", "<option>", "<option>"], "correct_answer": <index into options>, "explanation": "<why the answer is correct>"}`)
	sb.WriteString("\n\nRules: exactly four options, correct_answer is a zero-based index, no markdown, no text outside the JSON object.\n")
	return sb.String()
}
