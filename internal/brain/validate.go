package brain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/irinasmt/rcabrain/internal/models"
)

// validate is shared across every stage's tagged output struct. go-playground
// validator instances are safe for concurrent use once built, per its docs.
var validate = validator.New()

// SupervisorOutput is supervisor's contract.
type SupervisorOutput struct {
	TaskPlan     string   `validate:"required"`
	EvidenceRefs []string `validate:"required,min=1"`
}

// MeshScoutOutput is mesh_scout's contract.
type MeshScoutOutput struct {
	SuspectServices []string `validate:"required,min=1"`
	MeshSummary     string   `validate:"required"`
}

// GitScoutOutput is git_scout's contract.
type GitScoutOutput struct {
	GitSummary string `validate:"required"`
}

// MetricAnalystOutput is metric_analyst's contract.
type MetricAnalystOutput struct {
	MetricsSummary string   `validate:"required"`
	EvidenceRefs   []string `validate:"required,min=1"`
}

// SynthesizerOutput is rca_synthesizer's contract. An empty hypothesis
// list is legal (the critic and fix advisor both zero out on it), so
// only the entries themselves are constrained.
type SynthesizerOutput struct {
	Hypotheses []models.Hypothesis `validate:"dive"`
}

// CriticOutput is critic's contract. Reasoning is checked
// explicitly rather than tagged `required`, since an empty-hypothesis run
// legitimately produces no reasoning (see validateOutput below).
type CriticOutput struct {
	CriticScore     float64 `validate:"gte=0,lte=1"`
	CriticReasoning string
	hadHypotheses   bool
}

// FixAdvisorOutput is fix_advisor's contract.
type FixAdvisorOutput struct {
	FixSummary    string  `validate:"required"`
	FixConfidence float64 `validate:"gte=0,lte=1"`
	FixReasoning  string
	hadHypotheses bool
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return err
	}
	return nil
}

func (o SupervisorOutput) validateOutput() error { return validateStruct(o) }

func (o MeshScoutOutput) validateOutput() error {
	if err := validateStruct(o); err != nil {
		return err
	}
	if o.SuspectServices[0] == "" {
		return fmt.Errorf("brain: suspect_services[0] must be non-empty")
	}
	return nil
}

func (o GitScoutOutput) validateOutput() error {
	if err := validateStruct(o); err != nil {
		return err
	}
	if strings.Contains(o.GitSummary, "--- a/") || strings.Contains(o.GitSummary, "+++ b/") {
		return fmt.Errorf("brain: git_summary must not contain unified-diff file headers")
	}
	return nil
}

func (o MetricAnalystOutput) validateOutput() error { return validateStruct(o) }

func (o SynthesizerOutput) validateOutput() error {
	if err := validateStruct(o); err != nil {
		return err
	}
	for i, h := range o.Hypotheses {
		if strings.TrimSpace(h.Title) == "" || strings.TrimSpace(h.Summary) == "" {
			return fmt.Errorf("brain: hypothesis %d missing title/summary", i)
		}
		if h.Confidence < 0 || h.Confidence > 1 {
			return fmt.Errorf("brain: hypothesis %d confidence %v out of bounds", i, h.Confidence)
		}
	}
	return nil
}

// validateOutput enforces critic's documented exception: an empty
// hypothesis list yields score 0 with no reasoning required.
func (o CriticOutput) validateOutput() error {
	if err := validateStruct(o); err != nil {
		return err
	}
	if o.hadHypotheses && strings.TrimSpace(o.CriticReasoning) == "" {
		return fmt.Errorf("brain: critic_reasoning is required when hypotheses are present")
	}
	return nil
}

// validateOutput enforces fix_advisor's documented exception: an empty
// hypothesis list still needs a summary (the explanatory one), but no
// reasoning is required.
func (o FixAdvisorOutput) validateOutput() error {
	if err := validateStruct(o); err != nil {
		return err
	}
	if o.hadHypotheses && strings.TrimSpace(o.FixReasoning) == "" {
		return fmt.Errorf("brain: fix_reasoning is required when hypotheses are present")
	}
	return nil
}
