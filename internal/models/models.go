// Package models holds the data shapes shared across the indexing and
// investigation pipelines.
package models

import (
	"fmt"
	"time"
)

// Clamp01 clamps f into the closed interval [0, 1].
func Clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ApprovedIncident is an incident that has passed upstream triage and is
// ready for investigation.
type ApprovedIncident struct {
	IncidentID   string         `json:"incident_id"`
	Service      string         `json:"service"`
	StartedAt    time.Time      `json:"started_at"`
	DeploymentID *string        `json:"deployment_id,omitempty"`
	ExtraContext map[string]any `json:"extra_context"`
}

// Validate enforces the admission contract for an approved incident.
func (i ApprovedIncident) Validate() error {
	if len(i.IncidentID) < 3 {
		return fmt.Errorf("incident_id must be at least 3 characters, got %q", i.IncidentID)
	}
	if len(i.Service) < 2 {
		return fmt.Errorf("service must be at least 2 characters, got %q", i.Service)
	}
	if i.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	return nil
}

// Hypothesis is a candidate root cause produced by the synthesizer stage.
type Hypothesis struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Confidence   float64  `json:"confidence"`
	EvidenceRefs []string `json:"evidence_refs"`
}

// ReportStatus is the terminal state of an RcaReport.
type ReportStatus string

const (
	ReportCompleted ReportStatus = "completed"
	ReportEscalated ReportStatus = "escalated"
	ReportFailed    ReportStatus = "failed"
)

// BrainStateStatus is the in-flight state of a BrainState.
type BrainStateStatus string

const (
	BrainRunning   BrainStateStatus = "running"
	BrainCompleted BrainStateStatus = "completed"
	BrainEscalated BrainStateStatus = "escalated"
	BrainFailed    BrainStateStatus = "failed"
)

// BrainState is the mutable working memory threaded through one
// investigation cycle.
type BrainState struct {
	Incident        ApprovedIncident `json:"incident"`
	Iteration       int              `json:"iteration"`
	MaxIterations   int              `json:"max_iterations"`
	CriticThreshold float64          `json:"critic_threshold"`

	EvidenceRefs []string         `json:"evidence_refs"`
	Hypotheses   []Hypothesis     `json:"hypotheses"`
	CriticScore  float64          `json:"critic_score"`
	Status       BrainStateStatus `json:"status"`
	Errors       []string         `json:"errors"`

	SuspectServices []string `json:"suspect_services"`
	SuspectEdges    []string `json:"suspect_edges"`
	MeshSummary     string   `json:"mesh_summary"`

	TaskPlan       string `json:"task_plan"`
	GitSummary     string `json:"git_summary"`
	MetricsSummary string `json:"metrics_summary"`

	CriticReasoning string `json:"critic_reasoning"`

	FixSummary    string  `json:"fix_summary"`
	FixConfidence float64 `json:"fix_confidence"`
	FixReasoning  string  `json:"fix_reasoning"`
}

// NewBrainState seeds a fresh state for a single incident, matching the
// defaults BrainEngine relies on.
func NewBrainState(incident ApprovedIncident) *BrainState {
	if incident.ExtraContext == nil {
		incident.ExtraContext = map[string]any{}
	}
	return &BrainState{
		Incident:        incident,
		MaxIterations:   3,
		CriticThreshold: 0.80,
		Status:          BrainRunning,
	}
}

// RcaReport is the final artifact persisted for one investigation.
type RcaReport struct {
	IncidentID    string         `json:"incident_id"`
	Status        ReportStatus   `json:"status"`
	CriticScore   float64        `json:"critic_score"`
	FixConfidence float64        `json:"fix_confidence"`
	Hypotheses    []Hypothesis   `json:"hypotheses"`
	Errors        []string       `json:"errors"`
	Metadata      map[string]any `json:"metadata"`
}

// RepoEntry describes one repository registered against a service.
type RepoEntry struct {
	RepoURL       string `json:"repo_url"`
	Language      string `json:"language"`
	DefaultBranch string `json:"default_branch"`
}

// DifferentialIndexerRequest is one indexing unit of work: a single
// commit against a single service.
type DifferentialIndexerRequest struct {
	Service             string   `json:"service"`
	CommitSHA           string   `json:"commit_sha"`
	FilePaths           []string `json:"file_paths"`
	EnableSemanticDelta bool     `json:"enable_semantic_delta"`
}

// Validate enforces the request contract before any pipeline work starts.
func (r DifferentialIndexerRequest) Validate() error {
	if r.Service == "" {
		return fmt.Errorf("service is required")
	}
	if len(r.CommitSHA) < 7 {
		return fmt.Errorf("commit_sha must be at least 7 characters, got %q", r.CommitSHA)
	}
	return nil
}

// BackfillPolicy bounds a historical-replay run.
type BackfillPolicy struct {
	MaxDays   int    `json:"max_days"`
	BatchSize int    `json:"batch_size"`
	Branch    string `json:"branch"`
}

// DefaultBackfillPolicy matches the original implementation's defaults.
func DefaultBackfillPolicy() BackfillPolicy {
	return BackfillPolicy{MaxDays: 90, BatchSize: 20, Branch: "main"}
}

// Node status values in the property graph.
const (
	StatusAdded     = "ADDED"
	StatusModified  = "MODIFIED"
	StatusUnchanged = "UNCHANGED"
	StatusDeleted   = "DELETED"
	StatusMoved     = "MOVED"
)

// Node is one symbol-level vertex in the code property graph.
type Node struct {
	ID            string         `json:"id"`
	Label         string         `json:"label"`
	Service       string         `json:"service"`
	FilePath      string         `json:"file_path"`
	SymbolName    string         `json:"symbol_name"`
	SymbolKind    string         `json:"symbol_kind"`
	StartLine     int            `json:"start_line"`
	EndLine       int            `json:"end_line"`
	Status        string         `json:"status"`
	CommitSHA     string         `json:"commit_sha"`
	PriorPath     string         `json:"prior_path,omitempty"`
	Text          string         `json:"text"`
	SemanticDelta string         `json:"semantic_delta,omitempty"`
	Properties    map[string]any `json:"properties"`
}

// Edge is one relation between two Nodes.
type Edge struct {
	Label  string `json:"label"`
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

// Diagnostic severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// IndexingDiagnostic is one structured event emitted during indexing.
type IndexingDiagnostic struct {
	Severity  string  `json:"severity"`
	Stage     string  `json:"stage"`
	Message   string  `json:"message"`
	FilePath  *string `json:"file_path,omitempty"`
	CommitSHA *string `json:"commit_sha,omitempty"`
}
