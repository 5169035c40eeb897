// Package llm wraps the OpenAI compatible chat completion endpoint used for AI analysis.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
)

const systemPrompt = "You are a professional fund investment advisor. Analyze the candidate funds you are given and answer strictly with the requested JSON object."

// ErrEmptyCompletion is returned when the endpoint answers without any choice.
var ErrEmptyCompletion = errors.New("no completion returned")

// Client produces a completion for a prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatClient calls a chat completion endpoint through go-openai.
type ChatClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewChatClient builds a client for the configured endpoint and model.
// The timeout is applied per call by the caller's context.
func NewChatClient(cfg config.LLMConfig) *ChatClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{}

	return &ChatClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete sends the prompt as the user message and returns the first choice's content.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
