// Package llm wraps an OpenAI-compatible chat completion API for tutor
// replies and quiz generation.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/algotutor/algotutor/internal/llm/prompts"
	"github.com/algotutor/algotutor/internal/model"
)

// Generator produces text from a structured prompt. Implementations are
// injected so tests can substitute fakes.
type Generator interface {
	// Reply returns the tutor's conversational answer to the latest
	// user message, given the adaptive system prompt and bounded
	// history.
	Reply(ctx context.Context, systemPrompt string, history []model.Message, userMsg string) (string, error)
	// GenerateQuizJSON returns the raw model output for a quiz request.
	// The caller parses and validates it.
	GenerateQuizJSON(ctx context.Context, topic string, difficulty model.Difficulty) (string, error)
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api          *openai.Client
	model        string
	historyLimit int
}

// New creates a new LLM client. historyLimit bounds how many prior
// conversation messages are sent per reply.
func New(baseURL, apiKey, modelName string, historyLimit int) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:          openai.NewClientWithConfig(config),
		model:        modelName,
		historyLimit: historyLimit,
	}
}

// Ping verifies the endpoint is reachable by listing models.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// Reply implements Generator.
func (c *Client) Reply(ctx context.Context, systemPrompt string, history []model.Message, userMsg string) (string, error) {
	chatMsgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}

	if c.historyLimit > 0 && len(history) > c.historyLimit {
		history = history[len(history)-c.historyLimit:]
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Sender == model.SenderBot {
			role = openai.ChatMessageRoleAssistant
		}
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Body,
		})
	}
	chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMsg,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMsgs,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM reply", "raw", raw)
	return raw, nil
}

// GenerateQuizJSON implements Generator.
func (c *Client) GenerateQuizJSON(ctx context.Context, topic string, difficulty model.Difficulty) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.Quiz(topic, difficulty)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens:   400,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("LLM quiz call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices for quiz")
	}
	return resp.Choices[0].Message.Content, nil
}
