package llmport

import (
	"context"
	"encoding/json"
	"fmt"
)

// Stub is a no-LLM implementation of the port. It never calls out to a
// network; Generate returns TextResponse (empty unless set) and
// GenerateJSON decodes the static response registered for a substring of
// userPrompt (when several registered substrings match, which one is used
// is not defined, since map iteration order is random), or returns an
// error if nothing matches, mirroring the original
// implementation's "no provider configured" stub paths.
type Stub struct {
	JSONResponses map[string]string // substring -> raw JSON response
	TextResponse  string
}

// NewStub returns a Stub with no responses configured; stages are
// expected to fall back to their own no-LLM stub formulas when Generate
// returns empty or GenerateJSON fails to decode.
func NewStub() *Stub {
	return &Stub{JSONResponses: map[string]string{}}
}

func (s *Stub) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.TextResponse, nil
}

func (s *Stub) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	for substr, raw := range s.JSONResponses {
		if containsSubstr(userPrompt, substr) {
			return json.Unmarshal([]byte(raw), out)
		}
	}
	return fmt.Errorf("llmport: stub has no response configured for prompt")
}

func containsSubstr(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
