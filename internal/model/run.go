package model

import "time"

// Company identifies the analysis target.
type Company struct {
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
}

// RunStatus tracks a persisted analysis run's lifecycle.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one persisted analysis of a company.
type Run struct {
	ID        string    `json:"id"`
	Company   Company   `json:"company"`
	Status    RunStatus `json:"status"`
	Report    *Report   `json:"report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PhaseStatus tracks a pipeline phase's lifecycle within a run.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// RunPhase is the persisted audit row for one executed phase.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseResult summarizes what a phase accomplished.
type PhaseResult struct {
	Status     PhaseStatus `json:"status"`
	Candidates int         `json:"candidates"`
	Resolved   []Criterion `json:"resolved,omitempty"`
	DurationMS int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

// PhaseEntry is the in-memory phase log kept on AnalysisState.
type PhaseEntry struct {
	Phase      string        `json:"phase"`
	Candidates int           `json:"candidates"`
	Resolved   []Criterion   `json:"resolved,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// AnalysisState is the working state of one run: the shrinking missing
// set, the accepted evidence per criterion, and the phase log. Evidence
// fields are mutated only through the ledger.
type AnalysisState struct {
	Company          Company                       `json:"company"`
	Accepted         map[Criterion]*EvidenceRecord `json:"accepted"`
	Superseded       []*EvidenceRecord             `json:"superseded,omitempty"`
	PhaseLog         []PhaseEntry                  `json:"phase_log"`
	ProcessingErrors []ProcessingError             `json:"processing_errors,omitempty"`
	StartedAt        time.Time                     `json:"started_at"`
	CompletedAt      time.Time                     `json:"completed_at"`
}

// Missing returns the criteria from the registry that lack accepted
// evidence, in registry order.
func (s *AnalysisState) Missing(reg *Registry) []Criterion {
	var out []Criterion
	for _, key := range reg.Keys() {
		if _, ok := s.Accepted[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}
