// Package llmport defines the LLM Port: a minimal generate/generate_json
// contract used by every investigator stage, plus a deterministic stub,
// a rate-limited decorator, and Gemini/OpenAI-backed implementations.
package llmport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Port is the contract every investigator stage depends on.
type Port interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error
}

// DecodeFenced strips a leading/trailing Markdown code fence (```json ...
// ``` or plain ``` ... ```) from raw before JSON-decoding it into out,
// matching the original system's generate_json behavior exactly.
func DecodeFenced(raw string, out any) error {
	text := strings.TrimSpace(raw)
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		text = strings.Join(lines, "\n")
	}
	text = strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("llmport: decode json response: %w", err)
	}
	return nil
}

// base implements GenerateJSON for any backend that only needs to supply
// Generate; generate_json is just fence-stripped Generate in the
// original implementation.
type base struct {
	generate func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (b base) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return b.generate(ctx, systemPrompt, userPrompt)
}

func (b base) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	raw, err := b.generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return err
	}
	return DecodeFenced(raw, out)
}
