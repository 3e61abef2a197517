package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/irinasmt/rcabrain/internal/models"
	"github.com/irinasmt/rcabrain/internal/rcalog"
	"github.com/irinasmt/rcabrain/internal/report"
)

// stage is the capability every investigator stage implements: run
// against shared state, then validate the result. The dispatcher, not
// the stage body, enforces the output contract.
type stage interface {
	Name() string
	Run(ctx context.Context, deps *Deps, state *models.BrainState) error
	Validate(state *models.BrainState) error
}

var stages = map[string]stage{
	"supervisor":      supervisorStage{},
	"mesh_scout":      meshScoutStage{},
	"git_scout":       gitScoutStage{},
	"metric_analyst":  metricAnalystStage{},
	"rca_synthesizer": synthesizerStage{},
	"critic":          criticStage{},
	"fix_advisor":     fixAdvisorStage{},
}

// Config bounds one Orchestrator run.
type Config struct {
	CriticThreshold        float64
	FixConfidenceThreshold float64
	MaxIterations          int
	ReportLogPath          string
}

// DefaultConfig matches BrainState's own defaults plus the standing
// fix-confidence threshold.
func DefaultConfig() Config {
	return Config{CriticThreshold: 0.80, FixConfidenceThreshold: 0.75, MaxIterations: 3}
}

// Orchestrator drives the seven-stage cyclic investigation graph:
// supervisor -> mesh_scout -> git_scout -> metric_analyst ->
// rca_synthesizer -> critic -> [loop to supervisor | fix_advisor] -> END.
type Orchestrator struct {
	Deps    Deps
	Config  Config
	Reports report.Store
	Logger  *rcalog.Logger
}

// NewOrchestrator wires an Orchestrator with an in-memory report store if
// none is supplied, and a stdout-only rcalog.Logger if none is supplied.
func NewOrchestrator(deps Deps, config Config, reports report.Store) *Orchestrator {
	if reports == nil {
		reports = report.NewMemoryStore()
	}
	logger, err := rcalog.NewLogger(rcalog.Config{Level: rcalog.INFO})
	if err != nil {
		logger = nil // Run builds its own stdout logger when Logger is nil, so construction does not fail here
	}
	return &Orchestrator{Deps: deps, Config: config, Reports: reports, Logger: logger}
}

// Run drives one incident through the full investigation graph and
// returns the persisted terminal report.
func (o *Orchestrator) Run(ctx context.Context, incident models.ApprovedIncident) (result *models.RcaReport, err error) {
	if err := incident.Validate(); err != nil {
		return nil, fmt.Errorf("brain: reject incident: %w", err)
	}

	runID := uuid.New().String() // correlates this run's report/log with external telemetry
	log := o.Logger
	if log == nil {
		log, _ = rcalog.NewLogger(rcalog.Config{Level: rcalog.INFO})
	}
	log = log.With("trace_id", runID, "incident_id", incident.IncidentID)

	state := models.NewBrainState(incident)
	if o.Config.MaxIterations > 0 {
		state.MaxIterations = o.Config.MaxIterations
	}
	if o.Config.CriticThreshold > 0 {
		state.CriticThreshold = o.Config.CriticThreshold
	}

	defer func() {
		if r := recover(); r != nil {
			state.Status = models.BrainFailed
			state.Errors = append(state.Errors, fmt.Sprintf("panic: %v", r))
			log.Error("brain: stage panicked", "panic", r)
			result = o.finish(ctx, state, runID)
			err = nil
		}
	}()

	current := "supervisor"
	for current != "" {
		select {
		case <-ctx.Done():
			state.Status = models.BrainFailed
			state.Errors = append(state.Errors, "cancelled: "+ctx.Err().Error())
			log.Warn("brain: run cancelled", "stage", current, "cause", ctx.Err())
			return o.finish(ctx, state, runID), nil
		default:
		}

		s, ok := stages[current]
		if !ok {
			return nil, fmt.Errorf("brain: unknown stage %q", current)
		}
		log.Info("brain: entering stage", "stage", current, "iteration", state.Iteration)
		if runErr := s.Run(ctx, &o.Deps, state); runErr != nil {
			state.Status = models.BrainFailed
			state.Errors = append(state.Errors, runErr.Error())
			log.Error("brain: stage failed", "stage", current, "error", runErr)
			return o.finish(ctx, state, runID), nil
		}
		if valErr := s.Validate(state); valErr != nil {
			state.Status = models.BrainFailed
			state.Errors = append(state.Errors, fmt.Sprintf("%s_validation_error: %v", s.Name(), valErr))
			log.Error("brain: stage output failed validation", "stage", current, "error", valErr)
			return o.finish(ctx, state, runID), nil
		}

		next := nextStage(current, state)
		log.Info("brain: stage transition", "from", current, "to", next)
		current = next
	}

	if state.CriticScore >= state.CriticThreshold || state.FixConfidence >= o.Config.FixConfidenceThreshold {
		state.Status = models.BrainCompleted
	} else {
		state.Status = models.BrainEscalated
	}
	return o.finish(ctx, state, runID), nil
}

// nextStage is the conditional dispatcher: the only branch point is
// after critic.
func nextStage(current string, state *models.BrainState) string {
	switch current {
	case "supervisor":
		return "mesh_scout"
	case "mesh_scout":
		return "git_scout"
	case "git_scout":
		return "metric_analyst"
	case "metric_analyst":
		return "rca_synthesizer"
	case "rca_synthesizer":
		return "critic"
	case "critic":
		if state.CriticScore >= state.CriticThreshold || state.Iteration >= state.MaxIterations {
			return "fix_advisor"
		}
		return "supervisor"
	case "fix_advisor":
		return ""
	default:
		return ""
	}
}

func (o *Orchestrator) finish(ctx context.Context, state *models.BrainState, runID string) *models.RcaReport {
	status := state.Status
	if status == "" || status == models.BrainRunning {
		status = models.BrainFailed
	}
	rep := &models.RcaReport{
		IncidentID:    state.Incident.IncidentID,
		Status:        models.ReportStatus(status),
		CriticScore:   state.CriticScore,
		FixConfidence: state.FixConfidence,
		Hypotheses:    state.Hypotheses,
		Errors:        state.Errors,
		Metadata: map[string]any{
			"trace_id":                 runID,
			"iteration":                state.Iteration,
			"max_iterations":           state.MaxIterations,
			"critic_threshold":         state.CriticThreshold,
			"fix_confidence_threshold": o.Config.FixConfidenceThreshold,
			"task_plan":                state.TaskPlan,
			"mesh_summary":             state.MeshSummary,
			"git_summary":              state.GitSummary,
			"metrics_summary":          state.MetricsSummary,
			"critic_reasoning":         state.CriticReasoning,
			"fix_summary":              state.FixSummary,
			"fix_reasoning":            state.FixReasoning,
			"suspect_services":         state.SuspectServices,
			"suspect_edges":            state.SuspectEdges,
			"evidence_refs":            state.EvidenceRefs,
		},
	}

	if o.Reports != nil {
		if err := o.Reports.Save(ctx, rep); err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("report_save_error: %v", err))
		}
	}
	if o.Config.ReportLogPath != "" {
		if err := report.WriteLog(o.Config.ReportLogPath, rep, time.Now()); err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("report_log_error: %v", err))
		}
	}
	return rep
}
