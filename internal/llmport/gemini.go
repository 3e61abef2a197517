package llmport

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend wraps Google's genai SDK as the primary LLM Port
// implementation.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiBackend builds a GeminiBackend. model defaults to
// "gemini-2.0-flash" when empty, matching the original's LLMConfig
// default.
func NewGeminiBackend(ctx context.Context, apiKey, model string, temperature float32) (Port, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llmport: gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("llmport: create gemini client: %w", err)
	}
	backend := &GeminiBackend{client: client, model: model, temperature: temperature}
	return base{generate: backend.generate}, nil
}

func (g *GeminiBackend) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var systemInstruction *genai.Content
	if systemPrompt != "" {
		systemInstruction = genai.Text(systemPrompt)[0]
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       &g.temperature,
		MaxOutputTokens:   2000,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", fmt.Errorf("llmport: gemini completion: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("llmport: gemini returned no content")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
