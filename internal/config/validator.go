package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/irinasmt/rcabrain/internal/errors"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result.
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result.
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors.
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message.
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}
	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}
	return sb.String()
}

// Validate checks the config required for an Orchestrator run: a
// reachable Neo4j graph store and an LLM backend. Neither is fatal on
// its own -- the brain degrades to stub behavior without an LLM, and
// mesh_scout/git_scout fall back to raw-event/graph-absent paths
// without Neo4j -- so a missing setting is reported as a warning rather
// than an error unless the caller calls RequireNeo4j/RequireLLM directly.
// A NEO4J_URL that is set but fails to parse is still reported as an error.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}
	c.validateNeo4j(result, false)
	c.validateLLM(result, false)
	c.validateMeshRedis(result)
	return result
}

func (c *Config) validateNeo4j(result *ValidationResult, required bool) {
	if c.Neo4j.URL == "" {
		if required {
			result.AddError("NEO4J_URL is required but not set")
		} else {
			result.AddWarning("NEO4J_URL is not set")
		}
		return
	}

	if _, err := url.Parse(c.Neo4j.URL); err != nil {
		result.AddError("NEO4J_URL is invalid: %v", err)
	}

	if c.Neo4j.Username == "" && required {
		result.AddError("NEO4J_USERNAME is required but not set")
	}
	if c.Neo4j.Password == "" && required {
		result.AddError("NEO4J_PASSWORD is required but not set")
	}
}

func (c *Config) validateLLM(result *ValidationResult, required bool) {
	if c.LLM.APIKey == "" {
		if required {
			result.AddError("LLM_API_KEY is required but not set. Set it via environment variable or keychain.")
		} else {
			result.AddWarning("LLM_API_KEY is not set; stages will fall back to deterministic stub output.")
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		result.AddWarning("LLM_TEMPERATURE %.2f is outside the conventional [0,2] range", c.LLM.Temperature)
	}
}

func (c *Config) validateMeshRedis(result *ValidationResult) {
	if c.MeshRedis.Addr == "" {
		result.AddWarning("MESH_REDIS_ADDR is not set; mesh_scout will run without a cache")
	}
}

// RequireNeo4j returns an error if the Neo4j connection settings are
// incomplete.
func (c *Config) RequireNeo4j() error {
	result := &ValidationResult{Valid: true}
	c.validateNeo4j(result, true)
	if result.HasErrors() {
		return errors.ConfigError(result.Error())
	}
	return nil
}

// RequireLLM returns an error if no LLM API key is configured.
func (c *Config) RequireLLM() error {
	result := &ValidationResult{Valid: true}
	c.validateLLM(result, true)
	if result.HasErrors() {
		return errors.ConfigError(result.Error())
	}
	return nil
}
