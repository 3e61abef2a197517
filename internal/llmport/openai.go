package llmport

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend is the secondary LLM Port implementation.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIBackend builds an OpenAIBackend. model defaults to GPT4oMini.
func NewOpenAIBackend(apiKey, model string, temperature float32) (Port, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llmport: openai api key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	backend := &OpenAIBackend{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   500,
	}
	return base{generate: backend.generate}, nil
}

func (o *OpenAIBackend) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llmport: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmport: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
